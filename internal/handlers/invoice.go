package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/BohBOhTN/ELKOLLA-API/internal/httpx"
	"github.com/BohBOhTN/ELKOLLA-API/internal/invoicing"
	"github.com/BohBOhTN/ELKOLLA-API/internal/models"
	"github.com/BohBOhTN/ELKOLLA-API/internal/money"
	"github.com/BohBOhTN/ELKOLLA-API/internal/numbering"
	"github.com/BohBOhTN/ELKOLLA-API/internal/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// InvoiceHandler serves the invoice JSON API.
type InvoiceHandler struct {
	Svc *invoicing.Service
	Log *zap.Logger
}

func NewInvoiceHandler(svc *invoicing.Service, log *zap.Logger) *InvoiceHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &InvoiceHandler{Svc: svc, Log: log}
}

// Register mounts the invoice routes on mux.
func (h *InvoiceHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /create_invoice", h.Create)
	mux.HandleFunc("GET /invoices", h.List)
	mux.HandleFunc("GET /invoice_details", h.Details)
	mux.HandleFunc("DELETE /delete_invoice", h.Delete)
}

type itemRequest struct {
	Reference   string           `json:"reference"`
	Quantity    int              `json:"quantity"`
	Designation string           `json:"designation"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
}

type createInvoiceRequest struct {
	ClientName  string        `json:"client_name"`
	VATNumber   string        `json:"vat_number"`
	Address     string        `json:"address"`
	InvoiceDate string        `json:"invoice_date"`
	Items       []itemRequest `json:"items"`
}

func (req createInvoiceRequest) validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("client_name", req.ClientName, v)
	validation.MaxLength("client_name", req.ClientName, 255, v)
	validation.Required("vat_number", req.VATNumber, v)
	validation.MaxLength("vat_number", req.VATNumber, 50, v)
	validation.MaxLength("address", req.Address, 500, v)
	validation.Required("invoice_date", req.InvoiceDate, v)
	for i, it := range req.Items {
		prefix := fmt.Sprintf("items[%d].", i)
		validation.MaxLength(prefix+"reference", it.Reference, 100, v)
		validation.MaxLength(prefix+"designation", it.Designation, 500, v)
		validation.RequiredDecimal(prefix+"unit_price", it.UnitPrice, v)
	}
	return v
}

func (req createInvoiceRequest) draft() invoicing.Draft {
	d := invoicing.Draft{
		ClientName:  req.ClientName,
		VATNumber:   req.VATNumber,
		Address:     req.Address,
		InvoiceDate: req.InvoiceDate,
		Items:       make([]invoicing.DraftItem, len(req.Items)),
	}
	for i, it := range req.Items {
		d.Items[i] = invoicing.DraftItem{
			Reference:   it.Reference,
			Designation: it.Designation,
			Quantity:    it.Quantity,
			UnitPrice:   *it.UnitPrice,
		}
	}
	return d
}

type createInvoiceResponse struct {
	InvoiceID        uint   `json:"invoice_id"`
	InvoiceNumber    string `json:"invoice_number"`
	SubtotalHT       string `json:"subtotal_ht"`
	TaxAmount        string `json:"tax_amount"`
	StampFee         string `json:"stamp_fee"`
	FinalAmount      string `json:"final_amount"`
	FinalAmountWords string `json:"final_amount_words"`
}

type invoiceSummary struct {
	InvoiceID     uint   `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
	ClientName    string `json:"client_name"`
	InvoiceDate   string `json:"invoice_date"`
	FinalAmount   string `json:"final_amount"`
}

type itemView struct {
	ItemID      uint   `json:"item_id"`
	Reference   string `json:"reference"`
	Designation string `json:"designation"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	TotalPrice  string `json:"total_price"`
}

type invoiceDetails struct {
	InvoiceID        uint       `json:"invoice_id"`
	InvoiceNumber    string     `json:"invoice_number"`
	ClientName       string     `json:"client_name"`
	VATNumber        string     `json:"vat_number"`
	Address          string     `json:"address"`
	InvoiceDate      string     `json:"invoice_date"`
	SubtotalHT       string     `json:"subtotal_ht"`
	TaxAmount        string     `json:"tax_amount"`
	StampFee         string     `json:"stamp_fee"`
	FinalAmount      string     `json:"final_amount"`
	FinalAmountWords string     `json:"final_amount_words"`
	CreatedAt        time.Time  `json:"created_at"`
	Items            []itemView `json:"items"`
}

func detailsFrom(inv *models.Invoice) invoiceDetails {
	out := invoiceDetails{
		InvoiceID:        inv.ID,
		InvoiceNumber:    inv.InvoiceNumber,
		ClientName:       inv.ClientName,
		VATNumber:        inv.VATNumber,
		Address:          inv.Address,
		InvoiceDate:      inv.FormattedDate(),
		SubtotalHT:       money.Format(inv.SubtotalHT),
		TaxAmount:        money.Format(inv.TaxAmount),
		StampFee:         money.Format(inv.StampFee),
		FinalAmount:      money.Format(inv.FinalAmount),
		FinalAmountWords: inv.FinalAmountWords,
		CreatedAt:        inv.CreatedAt,
		Items:            make([]itemView, len(inv.Items)),
	}
	for i, it := range inv.Items {
		out.Items[i] = itemView{
			ItemID:      it.ID,
			Reference:   it.Reference,
			Designation: it.Designation,
			Quantity:    it.Quantity,
			UnitPrice:   money.Format(it.UnitPrice),
			TotalPrice:  money.Format(it.TotalPrice),
		}
	}
	return out
}

// Create: POST /create_invoice
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid_json", err)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	inv, err := h.Svc.Create(r.Context(), req.draft())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, createInvoiceResponse{
		InvoiceID:        inv.ID,
		InvoiceNumber:    inv.InvoiceNumber,
		SubtotalHT:       money.Format(inv.SubtotalHT),
		TaxAmount:        money.Format(inv.TaxAmount),
		StampFee:         money.Format(inv.StampFee),
		FinalAmount:      money.Format(inv.FinalAmount),
		FinalAmountWords: inv.FinalAmountWords,
	})
}

// List: GET /invoices?year=&month=&day=
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, v := parseDateFilter(r)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_filter", v)
		return
	}
	if err := filter.Validate(); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid_filter", err)
		return
	}
	invoices, err := h.Svc.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]invoiceSummary, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		out[i] = invoiceSummary{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			ClientName:    inv.ClientName,
			InvoiceDate:   inv.FormattedDate(),
			FinalAmount:   money.Format(inv.FinalAmount),
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": out, "total": len(out)})
}

// Details: GET /invoice_details?invoice_id=|invoice_number=
func (h *InvoiceHandler) Details(w http.ResponseWriter, r *http.Request) {
	lookup, ok := h.lookup(w, r)
	if !ok {
		return
	}
	inv, err := h.Svc.Get(r.Context(), lookup)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detailsFrom(inv))
}

// Delete: DELETE /delete_invoice?invoice_id=|invoice_number=
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	lookup, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Delete(r.Context(), lookup); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// lookup reads invoice_id or invoice_number from the query and writes the
// 400 reply itself when neither is usable.
func (h *InvoiceHandler) lookup(w http.ResponseWriter, r *http.Request) (invoicing.Lookup, bool) {
	q := r.URL.Query()
	rawID := strings.TrimSpace(q.Get("invoice_id"))
	number := strings.TrimSpace(q.Get("invoice_number"))
	if rawID == "" && number == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_identifier",
			"invoice_id or invoice_number is required")
		return invoicing.Lookup{}, false
	}
	var l invoicing.Lookup
	v := validation.Violations{}
	if rawID != "" {
		id, err := strconv.ParseUint(rawID, 10, 64)
		if err != nil || id == 0 {
			v["invoice_id"] = "must_be_positive"
		}
		l.ID = uint(id)
	} else if _, err := numbering.Parse(number); err != nil {
		v["invoice_number"] = "invalid_format"
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return invoicing.Lookup{}, false
	}
	if l.ID == 0 {
		l.Number = number
	}
	return l, true
}

func parseDateFilter(r *http.Request) (invoicing.DateFilter, validation.Violations) {
	q := r.URL.Query()
	v := validation.Violations{}
	parse := func(name string, minVal, maxVal int) int {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			return 0
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			v[name] = "not_an_integer"
			return 0
		}
		validation.RangeInt(name, n, minVal, maxVal, v)
		return n
	}
	return invoicing.DateFilter{
		Year:  parse("year", 1, 9999),
		Month: time.Month(parse("month", 1, 12)),
		Day:   parse("day", 1, 31),
	}, v
}

// errorStatus maps domain errors to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, invoicing.ErrEmptyInvoice):
		return http.StatusBadRequest, "empty_invoice"
	case errors.Is(err, invoicing.ErrInvalidLineItem):
		return http.StatusBadRequest, "invalid_line_item"
	case errors.Is(err, invoicing.ErrAmountOverflow):
		return http.StatusBadRequest, "amount_overflow"
	case errors.Is(err, invoicing.ErrInvalidDate):
		return http.StatusBadRequest, "invalid_date"
	case errors.Is(err, invoicing.ErrSequenceOverflow):
		return http.StatusUnprocessableEntity, "sequence_overflow"
	case errors.Is(err, invoicing.ErrConcurrentAllocation):
		return http.StatusConflict, "concurrent_allocation_failure"
	case errors.Is(err, invoicing.ErrInvoiceNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (h *InvoiceHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.Log.Error("invoice request failed",
			zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	}
	httpx.Fail(w, status, code, err)
}
