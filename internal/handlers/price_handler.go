package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	apperrors "github.com/16navigabraham/Paycrypt-margin-price-api/internal/errors"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/metrics"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/services"
)

// PriceHandler handles price read requests.
type PriceHandler struct {
	priceService *services.PriceService
}

// NewPriceHandler creates a new PriceHandler.
func NewPriceHandler(priceService *services.PriceService) *PriceHandler {
	return &PriceHandler{priceService: priceService}
}

// PriceQuery represents the query parameters for a price read.
type PriceQuery struct {
	IDs        []string `form:"ids" binding:"required,dive,token_id" collection_format:"csv"`
	Currencies []string `form:"currencies" binding:"omitempty,dive,supported_currency" collection_format:"csv"`
}

// TokenMeta is the per-token metadata block in a price response.
// LastUpdated is a pointer so emergency-default entries, which have no
// fetch timestamp, omit the field instead of serializing the zero time.
type TokenMeta struct {
	Source      string     `json:"source"`
	ServedFrom  string     `json:"served_from"`
	Freshness   string     `json:"freshness"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

// GetPrices serves GET /api/v1/prices?ids=bitcoin,ethereum&currencies=usd,ngn.
// It only ever reads the cache tiers; a refresh, if needed, happens in the
// background after the response is sent.
func (h *PriceHandler) GetPrices(c *gin.Context) {
	start := time.Now()

	var query PriceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		appErr := bindError(err)
		h.observe(start, statusOf(appErr))
		respondWithError(c, appErr)
		return
	}

	tokenIDs := canonicalAll(query.IDs)
	currencies := canonicalAll(query.Currencies)
	if len(currencies) == 0 {
		currencies = []string{"usd", "ngn"}
	}

	result, err := h.priceService.GetPrices(c.Request.Context(), tokenIDs, currencies)
	if err != nil {
		h.observe(start, statusOf(err))
		respondWithError(c, err)
		return
	}

	data := make(map[string]map[string]float64, len(result.Tokens))
	tokenMeta := make(map[string]TokenMeta, len(result.Tokens))
	for id, quote := range result.Tokens {
		data[id] = quote.Prices
		meta := TokenMeta{
			Source:     quote.Source,
			ServedFrom: quote.ServedFrom,
			Freshness:  quote.Freshness,
		}
		if !quote.LastUpdated.IsZero() {
			updated := quote.LastUpdated
			meta.LastUpdated = &updated
		}
		tokenMeta[id] = meta
	}

	h.observe(start, http.StatusOK)
	c.JSON(http.StatusOK, gin.H{
		"data": data,
		"meta": gin.H{
			"served_from":       result.ServedFrom,
			"refresh_triggered": result.Refreshed,
			"tokens":            tokenMeta,
		},
	})
}

// bindError maps binding failures onto the request error taxonomy so
// clients get the specific code, not a raw validator message.
func bindError(err error) error {
	var verrs validatorv10.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			switch fe.Tag() {
			case "required":
				return apperrors.ErrMissingIDs
			case "supported_currency":
				return apperrors.ErrUnsupportedCurrency
			case "token_id":
				return apperrors.WithMessage(apperrors.ErrInvalidInput,
					fmt.Sprintf("Invalid token identifier: %v", fe.Value()))
			}
		}
	}
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}

func (h *PriceHandler) observe(start time.Time, status int) {
	metrics.RequestDuration.WithLabelValues(strconv.Itoa(status)).Observe(time.Since(start).Seconds())
}

func statusOf(err error) int {
	if appErr, ok := err.(*apperrors.AppError); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
