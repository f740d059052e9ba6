package httpgin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rodetes/boxoffice/internal/domain"
	postgresrepo "github.com/rodetes/boxoffice/internal/repository/postgres"
	"github.com/rodetes/boxoffice/internal/service"
)

// @Summary  List visible events
// @Success  200 {array} domain.Event
// @Router   /events [get]
func handleListEvents(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := svcs.Query.ListPublicEvents(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, events, "public, max-age=30", true)
	}
}

// @Summary  Get event
// @Param    id  path  int  true  "Event ID"
// @Success  200 {object} domain.Event
// @Failure  404 {object} ErrorResponse
// @Router   /events/{id} [get]
func handleGetEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		e, err := svcs.Query.GetEvent(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, e, "public, max-age=60", true)
	}
}

func handleListDrags(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svcs.Query.ListDrags(c.Request.Context(), true)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, out, "public, max-age=60", true)
	}
}

func handleGetDrag(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		d, err := svcs.Query.GetDrag(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

func handleListMerch(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svcs.Query.ListMerch(c.Request.Context(), true)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, out, "public, max-age=60", true)
	}
}

func handleGetMerchItem(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		m, err := svcs.Query.GetMerchItem(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, m)
	}
}

func handleListGallery(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svcs.Query.ListGallery(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, out, "public, max-age=60", true)
	}
}

func handleListSettings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svcs.Query.Settings(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, out, "public, max-age=60", true)
	}
}

// @Summary  Staff login
// @Param    req body LoginRequest true "credentials"
// @Success  200 {object} LoginResponse
// @Failure  401 {object} ErrorResponse
// @Router   /auth/login [post]
func handleLogin(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "email and password are required")
			return
		}

		token, user, err := svcs.Auth.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondErr(c, err)
			return
		}

		var resp LoginResponse
		resp.Success = true
		resp.Token = token
		resp.User.ID = user.ID
		resp.User.Email = user.Email

		c.JSON(http.StatusOK, resp)
	}
}

func handleMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		email, _ := c.Get("user_email")
		c.JSON(http.StatusOK, gin.H{"user": gin.H{"email": email}})
	}
}

// --- sales ---

// @Summary  Record a merch purchase
// @Param    req body CreateSaleRequest true "payload"
// @Success  201 {object} CreateSaleResponse
// @Failure  404 {object} ErrorResponse
// @Router   /sales [post]
func handleCreateSale(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateSaleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "merch_item_id is required")
			return
		}

		sale, err := svcs.Sales.Create(c.Request.Context(), req.MerchItemID, req.DragID, req.BuyerName, req.BuyerSurname)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, CreateSaleResponse{Success: true, Sale: sale})
	}
}

// @Summary  Mark a sale as delivered
// @Param    req body DeliverSaleRequest true "payload"
// @Success  200 {object} DeliverSaleResponse
// @Failure  400 {object} DeliverSaleResponse "already delivered, with sale"
// @Failure  404 {object} ErrorResponse
// @Router   /sales/deliver [post]
func handleDeliverSale(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DeliverSaleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "sale_id is required")
			return
		}

		saleID, err := uuid.Parse(req.SaleID)
		if err != nil {
			badRequest(c, "invalid sale_id")
			return
		}

		res, err := svcs.Sales.Deliver(c.Request.Context(), saleID)
		if err != nil {
			respondErr(c, err)
			return
		}

		if res.AlreadyDelivered {
			c.JSON(http.StatusBadRequest, DeliverSaleResponse{
				Success: false,
				Message: "this sale was already delivered",
				Sale:    res.Sale,
			})
			return
		}

		c.JSON(http.StatusOK, DeliverSaleResponse{
			Success: true,
			Message: "item delivered",
			Sale:    res.Sale,
		})
	}
}

func handleListSales(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svcs.Sales.ListAll(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// --- admin: events ---

func handleAdminListEvents(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svcs.Admin.ListEvents(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Create event
// @Param    req body EventRequest true "payload"
// @Success  201 {object} domain.Event
// @Router   /admin/events [post]
func handleCreateEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req EventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		date, err := parseDate(req.Date)
		if err != nil {
			badRequest(c, "invalid date")
			return
		}

		visible := true
		if req.IsVisible != nil {
			visible = *req.IsVisible
		}

		e := domain.Event{
			Title:        req.Title,
			Description:  req.Description,
			Date:         date,
			Time:         req.Time,
			Location:     req.Location,
			PriceCents:   req.PriceCents,
			Availability: req.Availability,
			PosterURL:    req.PosterURL,
			IsVisible:    visible,
		}

		stored, err := svcs.Admin.CreateEvent(c.Request.Context(), &e)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, stored)
	}
}

func handleUpdateEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		var req EventPatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		patch := postgresrepo.EventPatch{
			Title:        req.Title,
			Description:  req.Description,
			Time:         req.Time,
			Location:     req.Location,
			PriceCents:   req.PriceCents,
			Availability: req.Availability,
			PosterURL:    req.PosterURL,
			IsVisible:    req.IsVisible,
		}

		if req.Date != nil {
			date, err := parseDate(*req.Date)
			if err != nil {
				badRequest(c, "invalid date")
				return
			}
			patch.Date = &date
		}

		stored, err := svcs.Admin.UpdateEvent(c.Request.Context(), id, patch)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, stored)
	}
}

func handleDeleteEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		if err := svcs.Admin.DeleteEvent(c.Request.Context(), id); err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "event deleted"})
	}
}

// --- admin: drags ---

func handleAdminListDrags(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svcs.Query.ListDrags(c.Request.Context(), false)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func dragFromRequest(req DragRequest) domain.Drag {
	visible := true
	if req.IsVisible != nil {
		visible = *req.IsVisible
	}

	return domain.Drag{
		Name:      req.Name,
		Bio:       req.Bio,
		PhotoURL:  req.PhotoURL,
		Instagram: req.Instagram,
		IsVisible: visible,
	}
}

func handleCreateDrag(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DragRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		d := dragFromRequest(req)
		stored, err := svcs.Admin.CreateDrag(c.Request.Context(), &d)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, stored)
	}
}

func handleUpdateDrag(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		var req DragRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		d := dragFromRequest(req)
		stored, err := svcs.Admin.UpdateDrag(c.Request.Context(), id, &d)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, stored)
	}
}

func handleDeleteDrag(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		if err := svcs.Admin.DeleteDrag(c.Request.Context(), id); err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "drag deleted"})
	}
}

// --- admin: merch ---

func handleAdminListMerch(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svcs.Query.ListMerch(c.Request.Context(), false)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func merchFromRequest(req MerchItemRequest) domain.MerchItem {
	visible := true
	if req.IsVisible != nil {
		visible = *req.IsVisible
	}

	return domain.MerchItem{
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		ImageURL:    req.ImageURL,
		DragID:      req.DragID,
		Stock:       req.Stock,
		IsVisible:   visible,
	}
}

func handleCreateMerchItem(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req MerchItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		m := merchFromRequest(req)
		stored, err := svcs.Admin.CreateMerchItem(c.Request.Context(), &m)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, stored)
	}
}

func handleUpdateMerchItem(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		var req MerchItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		m := merchFromRequest(req)
		stored, err := svcs.Admin.UpdateMerchItem(c.Request.Context(), id, &m)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, stored)
	}
}

func handleDeleteMerchItem(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		if err := svcs.Admin.DeleteMerchItem(c.Request.Context(), id); err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "merch item deleted"})
	}
}

// --- admin: gallery and settings ---

func handleAddGalleryImage(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GalleryImageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		g := domain.GalleryImage{
			ImageURL: req.ImageURL,
			Caption:  req.Caption,
			EventID:  req.EventID,
		}

		stored, err := svcs.Admin.AddGalleryImage(c.Request.Context(), &g)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, stored)
	}
}

func handleDeleteGalleryImage(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		if err := svcs.Admin.DeleteGalleryImage(c.Request.Context(), id); err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "image deleted"})
	}
}

func handleUpsertSetting(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SettingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		if err := svcs.Admin.UpsertSetting(c.Request.Context(), req.Key, req.Value); err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "setting saved"})
	}
}
