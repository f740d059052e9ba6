package httpgin

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	redisrepo "github.com/rodetes/boxoffice/internal/repository/redis"
	"github.com/rodetes/boxoffice/internal/service"
	"github.com/rodetes/boxoffice/internal/service/tickets"
)

// @Summary  Purchase tickets (idempotent via Idempotency-Key)
// @Param    req body  PurchaseTicketsRequest true "payload"
// @Success  201 {object} PurchaseTicketsResponse
// @Failure  400 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse "event not found"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /tickets [post]
func handlePurchaseTickets(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	limiter *redisrepo.SlidingWindowLimiter,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PurchaseTicketsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		if limiter != nil {
			ok, _, retry, err := limiter.Allow(c.Request.Context(), "ip:"+c.ClientIP())
			if err == nil && !ok {
				c.Header("Retry-After", retry.Round(time.Second).String())
				c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limited"})
				return
			}
		}

		idemKey := c.GetHeader("Idempotency-Key")
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemPurchase(req.EventID, idemKey)

			if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
				return
			}

			locked, err := idem.AcquireLock(c.Request.Context(), idemStorageKey, 60*time.Second)
			if err == nil && !locked {
				if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "purchase in progress"})
				return
			}
		}

		created, err := svcs.Tickets.Issue(
			c.Request.Context(),
			req.EventID,
			tickets.Holder{Email: req.Email, Name: req.Name, Surname: req.Surname},
			req.Quantity,
		)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			// Partial issuance: the created tickets are valid, but the batch
			// fell short. The shortfall is the client's to handle.
			if len(created) > 0 {
				c.JSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error":   "ticket issuance incomplete",
					"tickets": created,
				})
				return
			}
			respondErr(c, err)
			return
		}

		resp := PurchaseTicketsResponse{Success: true, Tickets: created}

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  Scan a ticket at the door
// @Param    req body  ScanTicketRequest true "payload"
// @Success  200 {object} ScanTicketResponse
// @Failure  400 {object} ScanTicketResponse "already validated, with ticket"
// @Failure  404 {object} ErrorResponse
// @Router   /tickets/scan [post]
func handleScanTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ScanTicketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "ticket_id is required")
			return
		}

		res, err := svcs.Tickets.Validate(c.Request.Context(), req.TicketID)
		if err != nil {
			respondErr(c, err)
			return
		}

		if res.Status == tickets.ScanAlreadyUsed {
			// Deliberate: the conflict carries the full ticket so staff can
			// see who already used it and when.
			c.JSON(http.StatusBadRequest, ScanTicketResponse{
				Success: false,
				Message: "this ticket has ALREADY been validated",
				Ticket:  res.Ticket,
			})
			return
		}

		c.JSON(http.StatusOK, ScanTicketResponse{
			Success: true,
			Message: "ticket valid",
			Ticket:  res.Ticket,
		})
	}
}

// @Summary  Draw giveaway winners
// @Param    event_id  path   int  true   "Event ID"
// @Param    count     query  int  false  "number of winners (default 1)"
// @Success  200 {array}  domain.Winner
// @Failure  404 {object} ErrorResponse "no tickets for event"
// @Router   /tickets/giveaway/{event_id} [get]
func handleGiveaway(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "event_id")
		if !ok {
			return
		}

		count := parseIntDefault(c.Query("count"), 1)

		winners, err := svcs.Tickets.Draw(c.Request.Context(), eventID, count)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, winners)
	}
}

// @Summary  List all tickets
// @Success  200 {array} domain.TicketWithEvent
// @Router   /tickets [get]
func handleListTickets(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svcs.Tickets.ListAll(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Ticket QR code
// @Param    ticket_id  path   string  true   "Ticket token"
// @Param    size       query  int     false  "image size in px"
// @Produce  png
// @Success  200 {file} binary
// @Failure  404 {object} ErrorResponse
// @Router   /tickets/{ticket_id}/qr [get]
func handleTicketQR(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		size := parseIntDefault(c.Query("size"), 256)

		png, err := svcs.Tickets.QRCodePNG(c.Request.Context(), c.Param("ticket_id"), size)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.Data(http.StatusOK, "image/png", png)
	}
}
