package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"blinklean/internal/domain"
	"blinklean/internal/models"
	"blinklean/internal/service"

	"github.com/shopspring/decimal"
)

func (s *HTTPServer) handleAvailabilityCheck(w http.ResponseWriter, r *http.Request) {
	var body CheckEligibilityRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, err)
		return
	}

	e, err := s.svc.Zones.Resolve(r.Context(), body.Pincode, body.Latitude, body.Longitude)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *HTTPServer) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var body EstimateValueRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, err)
		return
	}

	v, err := s.svc.Valuator.Estimate(r.Context(), body.Items)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newValuationResponse(v))
}

type bookingRequest struct {
	PickupAddress   string                `json:"pickup_address"`
	Pincode         string                `json:"pincode"`
	Materials       []models.MaterialLine `json:"selected_materials"`
	EstimatedWeight *decimal.Decimal      `json:"estimated_weight,omitempty"`
	PredictedPrice  *decimal.Decimal      `json:"predicted_price,omitempty"`
	PickupDate      string                `json:"pickup_date"`
}

// parsePickupDate accepts RFC 3339 timestamps and bare YYYY-MM-DD dates.
func parsePickupDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, domain.ValidationError{Field: "pickup_date", Msg: "is required"}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, domain.ValidationError{Field: "pickup_date", Msg: "invalid date format; expected YYYY-MM-DD or RFC 3339", Err: err}
	}
	return t, nil
}

func (s *HTTPServer) handleSubmitBooking(w http.ResponseWriter, r *http.Request) {
	var body bookingRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, err)
		return
	}

	pickup, err := parsePickupDate(body.PickupDate)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.svc.Bookings.SubmitBooking(r.Context(), RequesterFrom(r.Context()), service.SubmitBookingRequest{
		PickupAddress:   body.PickupAddress,
		Pincode:         body.Pincode,
		Materials:       body.Materials,
		EstimatedWeight: body.EstimatedWeight,
		PredictedPrice:  body.PredictedPrice,
		PickupDate:      pickup,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *HTTPServer) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var body CreateOrderRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.svc.Payments.CreateOrder(r.Context(), r.Header.Get(platformHeader), RequesterFrom(r.Context()), body.BookingID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	var body models.PaymentCallback
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.svc.Payments.VerifyPayment(r.Context(), r.Header.Get(platformHeader), RequesterFrom(r.Context()), body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) handleFailOrder(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("order_id")
	if err := s.svc.Payments.MarkOrderFailed(r.Context(), orderID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"order_id": orderID, "payment_status": models.PaymentStatusFailed})
}

func (s *HTTPServer) handleListRates(w http.ResponseWriter, r *http.Request) {
	rates, err := s.svc.Rates.ListRates(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]rateResponse, 0, len(rates))
	for _, rate := range rates {
		out = append(out, newRateResponse(rate))
	}
	writeJSON(w, http.StatusOK, map[string]any{"rates": out})
}

type updateRateRequest struct {
	RatePerKg *decimal.Decimal `json:"rate_per_kg"`
}

func (s *HTTPServer) handleUpdateRate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, domain.ValidationError{Field: "id", Msg: "must be an integer"})
		return
	}

	var body updateRateRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	if body.RatePerKg == nil {
		s.writeError(w, domain.ValidationError{Field: "rate_per_kg", Msg: "is required"})
		return
	}

	rate, err := s.svc.Rates.UpdateRate(r.Context(), id, *body.RatePerKg)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRateResponse(rate))
}

func (s *HTTPServer) handleListServices(w http.ResponseWriter, r *http.Request) {
	listings, err := s.svc.Catalog.ListServices(r.Context(), r.Header.Get(platformHeader), r.URL.Query().Get("pincode"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": listings})
}
