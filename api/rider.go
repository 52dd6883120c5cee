package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	stripecustomer "github.com/stripe/stripe-go/v84/customer"
	"github.com/stripe/stripe-go/v84/invoice"
	"github.com/stripe/stripe-go/v84/setupintent"

	"github.com/elspark/rentalengine-backend/internal/middleware"
	"github.com/elspark/rentalengine-backend/rider"
)

type profileResponse struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email,omitempty"`
	Name           string    `json:"name,omitempty"`
	Status         string    `json:"status"`
	PrepaidBalance int       `json:"prepaidBalance"`
	MonthlyDebt    int       `json:"monthlyDebt"`
	RentingBike    bool      `json:"rentingBike"`
}

func (a *API) profileHandler(c *gin.Context) {
	rd, ok := a.currentRider(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, profileResponse{
		ID:             rd.ID,
		Email:          rd.Email.String,
		Name:           rd.Name.String,
		Status:         rd.Status,
		PrepaidBalance: rd.PrepaidBalance,
		MonthlyDebt:    rd.MonthlyDebt,
		RentingBike:    rd.RentingBike,
	})
}

type addFundsRequest struct {
	Amount int `json:"amount"`
}

func (a *API) addFundsHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var req addFundsRequest
	if err := c.Bind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	rd, ok := a.currentRider(c)
	if !ok {
		return
	}

	if err := a.rr.AddFunds(c.Request.Context(), rd.ID, req.Amount); err != nil {
		if errors.Is(err, rider.ErrInvalidAmount) {
			c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_AMOUNT", "message": "amount must be a positive integer"})
			return
		}
		logger.Error("Failed to add funds", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) transactionsHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	rd, ok := a.currentRider(c)
	if !ok {
		return
	}

	ts, err := a.rr.Transactions(c.Request.Context(), rd.ID)
	if err != nil {
		logger.Error("Failed to load transactions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, ts)
}

func (a *API) paymentsHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	rd, ok := a.currentRider(c)
	if !ok {
		return
	}

	ps, err := a.rr.Payments(c.Request.Context(), rd.ID)
	if err != nil {
		logger.Error("Failed to load payments", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, ps)
}

// settleDebtHandler invoices the rider's outstanding monthly debt and zeroes
// it. The invoice is issued before the debt is cleared so a rider is never
// zeroed without a payment attempt.
func (a *API) settleDebtHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	rd, ok := a.currentRider(c)
	if !ok {
		return
	}

	if rd.MonthlyDebt <= 0 {
		c.JSON(http.StatusConflict, gin.H{"code": "NO_DEBT", "message": "No outstanding debt"})
		return
	}
	if !rd.StripeID.Valid {
		c.JSON(http.StatusPreconditionFailed, gin.H{"code": "NO_PAYMENT_METHOD", "message": "Rider has no payment account"})
		return
	}

	inParams := &stripe.InvoiceParams{
		Customer: stripe.String(rd.StripeID.String),
	}
	in, err := invoice.New(inParams)
	if err != nil {
		logger.Error("Failed to create invoice", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	ilParams := &stripe.InvoiceAddLinesParams{
		Lines: []*stripe.InvoiceAddLinesLineParams{
			{
				Amount:      stripe.Int64(int64(rd.MonthlyDebt)),
				Description: stripe.String("Monthly ride debt"),
			},
		},
	}
	if _, err := invoice.AddLines(in.ID, ilParams); err != nil {
		logger.Error("Failed to add lines to invoice", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if _, err := invoice.FinalizeInvoice(in.ID, &stripe.InvoiceFinalizeInvoiceParams{}); err != nil {
		logger.Error("Failed to finalize invoice", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if _, err := invoice.Pay(in.ID, nil); err != nil {
		logger.Error("Failed to pay invoice", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	settled, err := a.rr.SettleDebt(c.Request.Context(), rd.ID, in.ID)
	if err != nil {
		if errors.Is(err, rider.ErrNoDebt) {
			c.JSON(http.StatusConflict, gin.H{"code": "NO_DEBT", "message": "No outstanding debt"})
			return
		}
		logger.Error("Failed to settle debt after payment", "invoiceId", in.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "amountSettled": settled, "invoiceId": in.ID})
}

// createPaymentAccountHandler backs the payment sheet in the rider app. It
// lazily creates the stripe customer for the rider and hands back a setup
// intent for registering a card.
func (a *API) createPaymentAccountHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	rd, ok := a.currentRider(c)
	if !ok {
		return
	}

	if !rd.StripeID.Valid {
		sc, err := stripecustomer.New(&stripe.CustomerParams{
			Metadata: map[string]string{
				"auth0_id": rd.Auth0ID,
				"id":       rd.ID.String(),
			},
		})
		if err != nil {
			logger.Error("Failed to create stripe customer", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		if err := a.rr.AddStripeIDToRider(c.Request.Context(), rd.Auth0ID, sc.ID); err != nil {
			logger.Error("Failed to save stripe customer ID", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		rd.StripeID.String = sc.ID
		rd.StripeID.Valid = true
	}

	si, err := setupintent.New(&stripe.SetupIntentParams{
		Customer: stripe.String(rd.StripeID.String),
		AutomaticPaymentMethods: &stripe.SetupIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	})
	if err != nil {
		logger.Error("Failed to create setup intent", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, struct {
		CustomerID  string `json:"customerId"`
		SetupIntent string `json:"setupIntent"`
	}{
		CustomerID:  rd.StripeID.String,
		SetupIntent: si.ClientSecret,
	})
}

type suspendedRequest struct {
	Suspended *bool `json:"suspended" binding:"required"`
}

func (a *API) setSuspendedHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_ID", "message": "id is not a valid rider id"})
		return
	}

	var req suspendedRequest
	if err := c.Bind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	if err := a.rr.SetSuspended(c.Request.Context(), id, *req.Suspended); err != nil {
		switch {
		case errors.Is(err, rider.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"code": "RIDER_NOT_FOUND", "message": "Rider not found"})
		case errors.Is(err, rider.ErrNoChange):
			c.JSON(http.StatusConflict, gin.H{"code": "NO_CHANGE", "message": "Rider already in requested state"})
		default:
			logger.Error("Failed to set suspended", "riderId", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
