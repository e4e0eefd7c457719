package checkout

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/common"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type checkoutRequest struct {
	Codes []string `json:"codes" validate:"max=500,dive,required,max=128"`
}

// BucketView is the per-rule breakdown entry in a quote payload.
type BucketView struct {
	Rule   string      `json:"rule"`
	Items  int         `json:"items"`
	Price  json.Number `json:"price"`
	Points json.Number `json:"points"`
}

// QuoteView is the public checkout payload. Money is rounded to 2 places.
type QuoteView struct {
	QuoteID        string       `json:"quoteId"`
	TotalPrice     json.Number  `json:"totalPrice"`
	LoyaltyPoints  json.Number  `json:"loyaltyPoints"`
	Subtotal       json.Number  `json:"subtotal"`
	GlobalDiscount json.Number  `json:"globalDiscount"`
	Items          int          `json:"items"`
	UnknownCodes   []string     `json:"unknownCodes"`
	Breakdown      []BucketView `json:"breakdown"`
	Cached         bool         `json:"cached"`
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// View renders q for API responses.
func (q Quote) View() QuoteView {
	v := QuoteView{
		QuoteID:        q.ID.String(),
		TotalPrice:     money(q.TotalPrice),
		LoyaltyPoints:  money(q.LoyaltyPoints),
		Subtotal:       money(q.Subtotal),
		GlobalDiscount: money(q.GlobalDiscount),
		Items:          q.Items,
		UnknownCodes:   q.Unknown,
		Breakdown:      make([]BucketView, 0, len(q.Buckets)),
		Cached:         q.Cached,
	}
	if v.UnknownCodes == nil {
		v.UnknownCodes = []string{}
	}
	for _, b := range q.Buckets {
		if b.Items == 0 {
			continue
		}
		v.Breakdown = append(v.Breakdown, BucketView{
			Rule:   b.Kind.String(),
			Items:  b.Items,
			Price:  money(b.Price),
			Points: money(b.Points),
		})
	}
	return v
}

// Handler exposes the checkout endpoint.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

// Checkout handles POST /api/v1/checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "checkout not configured", nil)
		return
	}
	req, err := decodeRequest(r.Body)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		common.WriteError(w, common.Validation("invalid checkout payload", validationDetails(err), err))
		return
	}

	quote, err := h.service.Quote(r.Context(), req.Codes)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": quote.View()})
}

// decodeRequest accepts either a bare JSON array of product codes or an
// object with a "codes" field.
func decodeRequest(body io.Reader) (checkoutRequest, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return checkoutRequest{}, common.NewAppError(common.CodeTooLarge, "request body too large", http.StatusRequestEntityTooLarge, err)
		}
		return checkoutRequest{}, common.BadRequest("failed to read body", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return checkoutRequest{}, common.BadRequest("request body is empty", nil)
	}

	var req checkoutRequest
	if raw[0] == '[' {
		err = json.Unmarshal(raw, &req.Codes)
	} else {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		err = dec.Decode(&req)
		if err == nil {
			if _, tail := dec.Token(); !errors.Is(tail, io.EOF) {
				err = errors.New("unexpected data after JSON object")
			}
		}
	}
	if err != nil {
		return checkoutRequest{}, common.BadRequest("invalid JSON payload", err)
	}
	if req.Codes == nil {
		req.Codes = []string{}
	}
	return req, nil
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make([]map[string]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, map[string]string{
			"field": fe.Field(),
			"rule":  fe.Tag(),
		})
	}
	return details
}
