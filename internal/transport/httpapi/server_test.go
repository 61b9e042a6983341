package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"bookwell/backend/internal/domain"
	"bookwell/backend/internal/service/scheduling"
	"bookwell/backend/internal/store"
)

var testSecret = []byte("test-secret")

// fakeService stubs the scheduling service with function fields; calls a test
// did not configure panic.
type fakeService struct {
	createBooking    func(ctx context.Context, caller scheduling.Caller, in scheduling.CreateInput) (domain.Booking, error)
	listForSubject   func(ctx context.Context, caller scheduling.Caller) ([]scheduling.BookingDetail, error)
	listForProvider  func(ctx context.Context, caller scheduling.Caller) ([]scheduling.BookingDetail, error)
	approve          func(ctx context.Context, caller scheduling.Caller, id uuid.UUID) (domain.Booking, error)
	decline          func(ctx context.Context, caller scheduling.Caller, id uuid.UUID, message string) (domain.Booking, error)
	revertPending    func(ctx context.Context, caller scheduling.Caller, id uuid.UUID) (domain.Booking, error)
	reschedule       func(ctx context.Context, caller scheduling.Caller, id uuid.UUID, in scheduling.RescheduleInput) (domain.Booking, error)
	cancel           func(ctx context.Context, caller scheduling.Caller, id uuid.UUID) (domain.Booking, error)
	updateSettings   func(ctx context.Context, caller scheduling.Caller, in scheduling.SettingsInput) (scheduling.ProviderSettings, error)
	providerSettings func(ctx context.Context, caller scheduling.Caller) (scheduling.ProviderSettings, error)
	listProviders    func(ctx context.Context) ([]scheduling.ProviderCard, error)
	availableSlotsOn func(ctx context.Context, providerID uuid.UUID, date string) ([]string, error)
}

func (f *fakeService) CreateBooking(ctx context.Context, caller scheduling.Caller, in scheduling.CreateInput) (domain.Booking, error) {
	return f.createBooking(ctx, caller, in)
}

func (f *fakeService) ListForSubject(ctx context.Context, caller scheduling.Caller) ([]scheduling.BookingDetail, error) {
	return f.listForSubject(ctx, caller)
}

func (f *fakeService) ListForProvider(ctx context.Context, caller scheduling.Caller) ([]scheduling.BookingDetail, error) {
	return f.listForProvider(ctx, caller)
}

func (f *fakeService) Approve(ctx context.Context, caller scheduling.Caller, id uuid.UUID) (domain.Booking, error) {
	return f.approve(ctx, caller, id)
}

func (f *fakeService) Decline(ctx context.Context, caller scheduling.Caller, id uuid.UUID, message string) (domain.Booking, error) {
	return f.decline(ctx, caller, id, message)
}

func (f *fakeService) RevertPending(ctx context.Context, caller scheduling.Caller, id uuid.UUID) (domain.Booking, error) {
	return f.revertPending(ctx, caller, id)
}

func (f *fakeService) Reschedule(ctx context.Context, caller scheduling.Caller, id uuid.UUID, in scheduling.RescheduleInput) (domain.Booking, error) {
	return f.reschedule(ctx, caller, id, in)
}

func (f *fakeService) Cancel(ctx context.Context, caller scheduling.Caller, id uuid.UUID) (domain.Booking, error) {
	return f.cancel(ctx, caller, id)
}

func (f *fakeService) UpdateProviderSettings(ctx context.Context, caller scheduling.Caller, in scheduling.SettingsInput) (scheduling.ProviderSettings, error) {
	return f.updateSettings(ctx, caller, in)
}

func (f *fakeService) ProviderSettings(ctx context.Context, caller scheduling.Caller) (scheduling.ProviderSettings, error) {
	return f.providerSettings(ctx, caller)
}

func (f *fakeService) ListProviders(ctx context.Context) ([]scheduling.ProviderCard, error) {
	return f.listProviders(ctx)
}

func (f *fakeService) AvailableSlotsOn(ctx context.Context, providerID uuid.UUID, date string) ([]string, error) {
	return f.availableSlotsOn(ctx, providerID, date)
}

var (
	subjectID  = uuid.MustParse("0191d000-0000-7000-8000-000000000001")
	providerID = uuid.MustParse("0191d000-0000-7000-8000-000000000002")
	bookingID  = uuid.MustParse("0191d000-0000-7000-8000-000000000003")
)

func newTestRouter(t *testing.T, svc *fakeService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return NewRouter(NewAPI(svc, nil), testSecret)
}

func signToken(t *testing.T, userID uuid.UUID, role domain.Role) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID.String(),
		"role": string(role),
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func doRequest(t *testing.T, router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return out
}

func TestIdentityMiddleware(t *testing.T) {
	router := newTestRouter(t, &fakeService{
		listProviders: func(ctx context.Context) ([]scheduling.ProviderCard, error) { return nil, nil },
	})

	t.Run("missing token", func(t *testing.T) {
		w := doRequest(t, router, http.MethodGet, "/api/providers", "", "")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
		if body := decodeBody(t, w); body["code"] != "unauthorized" {
			t.Fatalf("body = %v", body)
		}
	})

	t.Run("wrong signing key", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  subjectID.String(),
			"role": "SUBJECT",
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte("other-secret"))
		if err != nil {
			t.Fatalf("sign token: %v", err)
		}
		w := doRequest(t, router, http.MethodGet, "/api/providers", signed, "")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  subjectID.String(),
			"role": "SUBJECT",
			"exp":  time.Now().Add(-time.Hour).Unix(),
		})
		signed, err := token.SignedString(testSecret)
		if err != nil {
			t.Fatalf("sign token: %v", err)
		}
		w := doRequest(t, router, http.MethodGet, "/api/providers", signed, "")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
	})

	t.Run("unknown role", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  subjectID.String(),
			"role": "ADMIN",
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString(testSecret)
		if err != nil {
			t.Fatalf("sign token: %v", err)
		}
		w := doRequest(t, router, http.MethodGet, "/api/providers", signed, "")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
	})

	t.Run("valid token passes through", func(t *testing.T) {
		w := doRequest(t, router, http.MethodGet, "/api/providers", signToken(t, subjectID, domain.RoleSubject), "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
	})
}

func TestCreateBookingEndpoint(t *testing.T) {
	booking := domain.Booking{
		ID:          bookingID,
		SubjectID:   subjectID,
		ProviderID:  providerID,
		SessionDate: time.Date(2026, time.September, 14, 0, 0, 0, 0, time.UTC),
		SessionTime: "10:00",
		Status:      domain.BookingStatusPending,
	}

	t.Run("created", func(t *testing.T) {
		var gotCaller scheduling.Caller
		var gotInput scheduling.CreateInput
		router := newTestRouter(t, &fakeService{
			createBooking: func(ctx context.Context, caller scheduling.Caller, in scheduling.CreateInput) (domain.Booking, error) {
				gotCaller = caller
				gotInput = in
				return booking, nil
			},
		})

		body := `{"providerId":"` + providerID.String() + `","date":"2026-09-14","time":"10:00","paymentRef":"pay-42"}`
		w := doRequest(t, router, http.MethodPost, "/api/bookings", signToken(t, subjectID, domain.RoleSubject), body)
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		if gotCaller.ID != subjectID || gotCaller.Role != domain.RoleSubject {
			t.Fatalf("caller = %+v", gotCaller)
		}
		if gotInput.ProviderID != providerID || gotInput.Date != "2026-09-14" || gotInput.Time != "10:00" || gotInput.PaymentRef != "pay-42" {
			t.Fatalf("input = %+v", gotInput)
		}
		resp := decodeBody(t, w)
		if resp["id"] != bookingID.String() || resp["status"] != "PENDING" || resp["date"] != "2026-09-14" {
			t.Fatalf("response = %v", resp)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		router := newTestRouter(t, &fakeService{})
		w := doRequest(t, router, http.MethodPost, "/api/bookings", signToken(t, subjectID, domain.RoleSubject), `{"date":"2026-09-14"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	})

	t.Run("bad provider id", func(t *testing.T) {
		router := newTestRouter(t, &fakeService{})
		w := doRequest(t, router, http.MethodPost, "/api/bookings", signToken(t, subjectID, domain.RoleSubject),
			`{"providerId":"not-a-uuid","date":"2026-09-14","time":"10:00"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	})
}

func TestServiceErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", &scheduling.ValidationError{}, http.StatusBadRequest, "invalid_input"},
		{"not found", store.ErrNotFound, http.StatusNotFound, "not_found"},
		{"forbidden", scheduling.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"invalid role", scheduling.ErrInvalidRole, http.StatusBadRequest, "invalid_role"},
		{"slot unavailable", scheduling.ErrSlotUnavailable, http.StatusConflict, "slot_unavailable"},
		{"slot taken", scheduling.ErrSlotTaken, http.StatusConflict, "slot_taken"},
		{"invalid state", scheduling.ErrInvalidState, http.StatusConflict, "invalid_state"},
		{"internal", context.DeadlineExceeded, http.StatusInternalServerError, "internal"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(t, &fakeService{
				createBooking: func(ctx context.Context, caller scheduling.Caller, in scheduling.CreateInput) (domain.Booking, error) {
					return domain.Booking{}, tc.err
				},
			})
			body := `{"providerId":"` + providerID.String() + `","date":"2026-09-14","time":"10:00"}`
			w := doRequest(t, router, http.MethodPost, "/api/bookings", signToken(t, subjectID, domain.RoleSubject), body)
			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantStatus)
			}
			if resp := decodeBody(t, w); resp["code"] != tc.wantCode {
				t.Fatalf("code = %v, want %s", resp["code"], tc.wantCode)
			}
		})
	}
}

func TestBookingTransitions(t *testing.T) {
	confirmed := domain.Booking{
		ID:          bookingID,
		SubjectID:   subjectID,
		ProviderID:  providerID,
		SessionDate: time.Date(2026, time.September, 14, 0, 0, 0, 0, time.UTC),
		SessionTime: "10:00",
		Status:      domain.BookingStatusConfirmed,
	}

	t.Run("approve", func(t *testing.T) {
		router := newTestRouter(t, &fakeService{
			approve: func(ctx context.Context, caller scheduling.Caller, id uuid.UUID) (domain.Booking, error) {
				if id != bookingID {
					t.Fatalf("id = %s", id)
				}
				return confirmed, nil
			},
		})
		w := doRequest(t, router, http.MethodPut, "/api/bookings/"+bookingID.String()+"/approve",
			signToken(t, providerID, domain.RoleProvider), "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		if resp := decodeBody(t, w); resp["status"] != "CONFIRMED" {
			t.Fatalf("response = %v", resp)
		}
	})

	t.Run("decline forwards the message", func(t *testing.T) {
		cancelled := confirmed
		cancelled.Status = domain.BookingStatusCancelled
		router := newTestRouter(t, &fakeService{
			decline: func(ctx context.Context, caller scheduling.Caller, id uuid.UUID, message string) (domain.Booking, error) {
				if message != "fully booked" {
					t.Fatalf("message = %q", message)
				}
				return cancelled, nil
			},
		})
		w := doRequest(t, router, http.MethodPut, "/api/bookings/"+bookingID.String()+"/decline",
			signToken(t, providerID, domain.RoleProvider), `{"message":"fully booked"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
	})

	t.Run("decline without a body", func(t *testing.T) {
		cancelled := confirmed
		cancelled.Status = domain.BookingStatusCancelled
		router := newTestRouter(t, &fakeService{
			decline: func(ctx context.Context, caller scheduling.Caller, id uuid.UUID, message string) (domain.Booking, error) {
				if message != "" {
					t.Fatalf("message = %q, want empty", message)
				}
				return cancelled, nil
			},
		})
		w := doRequest(t, router, http.MethodPut, "/api/bookings/"+bookingID.String()+"/decline",
			signToken(t, providerID, domain.RoleProvider), "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
	})

	t.Run("reschedule requires date and time", func(t *testing.T) {
		router := newTestRouter(t, &fakeService{})
		w := doRequest(t, router, http.MethodPut, "/api/bookings/"+bookingID.String()+"/reschedule",
			signToken(t, subjectID, domain.RoleSubject), `{"date":"2026-09-14"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	})

	t.Run("cancel", func(t *testing.T) {
		cancelled := confirmed
		cancelled.Status = domain.BookingStatusCancelled
		router := newTestRouter(t, &fakeService{
			cancel: func(ctx context.Context, caller scheduling.Caller, id uuid.UUID) (domain.Booking, error) {
				return cancelled, nil
			},
		})
		w := doRequest(t, router, http.MethodDelete, "/api/bookings/"+bookingID.String(),
			signToken(t, subjectID, domain.RoleSubject), "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
	})

	t.Run("malformed booking id", func(t *testing.T) {
		router := newTestRouter(t, &fakeService{})
		w := doRequest(t, router, http.MethodPut, "/api/bookings/nope/approve",
			signToken(t, providerID, domain.RoleProvider), "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	})
}

func TestProviderEndpoints(t *testing.T) {
	t.Run("list providers", func(t *testing.T) {
		router := newTestRouter(t, &fakeService{
			listProviders: func(ctx context.Context) ([]scheduling.ProviderCard, error) {
				return []scheduling.ProviderCard{
					{ID: providerID, Name: "Dana Iveson", Qualification: "Physiotherapist", PricePerSession: 80},
				}, nil
			},
		})
		w := doRequest(t, router, http.MethodGet, "/api/providers", signToken(t, subjectID, domain.RoleSubject), "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var cards []map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &cards); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(cards) != 1 || cards[0]["name"] != "Dana Iveson" || cards[0]["pricePerSession"] != float64(80) {
			t.Fatalf("cards = %v", cards)
		}
	})

	t.Run("provider slots", func(t *testing.T) {
		router := newTestRouter(t, &fakeService{
			availableSlotsOn: func(ctx context.Context, id uuid.UUID, date string) ([]string, error) {
				if id != providerID || date != "2026-09-14" {
					t.Fatalf("args = %s %s", id, date)
				}
				return []string{"09:00", "10:30"}, nil
			},
		})
		w := doRequest(t, router, http.MethodGet, "/api/providers/"+providerID.String()+"/slots?date=2026-09-14",
			signToken(t, subjectID, domain.RoleSubject), "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		resp := decodeBody(t, w)
		slots, _ := resp["slots"].([]any)
		if len(slots) != 2 || slots[0] != "09:00" {
			t.Fatalf("response = %v", resp)
		}
	})

	t.Run("provider slots requires a date", func(t *testing.T) {
		router := newTestRouter(t, &fakeService{})
		w := doRequest(t, router, http.MethodGet, "/api/providers/"+providerID.String()+"/slots",
			signToken(t, subjectID, domain.RoleSubject), "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	})

	t.Run("update settings", func(t *testing.T) {
		router := newTestRouter(t, &fakeService{
			updateSettings: func(ctx context.Context, caller scheduling.Caller, in scheduling.SettingsInput) (scheduling.ProviderSettings, error) {
				if in.PricePerSession != 75 {
					t.Fatalf("price = %v", in.PricePerSession)
				}
				return scheduling.ProviderSettings{
					PricePerSession: 75,
					Week:            domain.WeeklyTemplate{domain.Monday: {"10:00"}},
				}, nil
			},
		})
		body := `{"pricePerSession":75,"availability":{"Monday":["10:00"]}}`
		w := doRequest(t, router, http.MethodPut, "/api/providers/me/settings",
			signToken(t, providerID, domain.RoleProvider), body)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		resp := decodeBody(t, w)
		if resp["pricePerSession"] != float64(75) {
			t.Fatalf("response = %v", resp)
		}
	})

	t.Run("my bookings includes the counterpart", func(t *testing.T) {
		router := newTestRouter(t, &fakeService{
			listForSubject: func(ctx context.Context, caller scheduling.Caller) ([]scheduling.BookingDetail, error) {
				return []scheduling.BookingDetail{{
					Booking: domain.Booking{
						ID:          bookingID,
						SubjectID:   subjectID,
						ProviderID:  providerID,
						SessionDate: time.Date(2026, time.September, 14, 0, 0, 0, 0, time.UTC),
						SessionTime: "10:00",
						Status:      domain.BookingStatusPending,
					},
					Counterpart: &domain.User{ID: providerID, FirstName: "Dana", Email: "dana@example.com"},
				}}, nil
			},
		})
		w := doRequest(t, router, http.MethodGet, "/api/bookings/me", signToken(t, subjectID, domain.RoleSubject), "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var rows []map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &rows); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(rows) != 1 {
			t.Fatalf("rows = %v", rows)
		}
		counterpart, _ := rows[0]["counterpart"].(map[string]any)
		if counterpart == nil || counterpart["name"] != "Dana" {
			t.Fatalf("counterpart = %v", counterpart)
		}
	})
}
