package handler

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/accounts-api/internal/domain/entity"
	"github.com/yourusername/accounts-api/internal/handler/dto"
	"github.com/yourusername/accounts-api/internal/service"
)

// AdminHandler serves account administration endpoints. Routes using it sit
// behind the AdminOnly middleware.
type AdminHandler struct {
	userService *service.UserService
}

func NewAdminHandler(userService *service.UserService) *AdminHandler {
	return &AdminHandler{userService: userService}
}

// PaginatedUsersResponse is a page of accounts in the all scope, including
// soft-deleted ones.
type PaginatedUsersResponse struct {
	Users   []*dto.UserResponse `json:"users"`
	Total   int64               `json:"total"`
	Page    int                 `json:"page"`
	PerPage int                 `json:"per_page"`
}

// ListUsers returns a page of accounts.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	users, total, err := h.userService.ListUsers(c.Request.Context(), page, pageSize)
	if err != nil {
		respondAppError(c, err)
		return
	}

	resp := &PaginatedUsersResponse{
		Users:   make([]*dto.UserResponse, 0, len(users)),
		Total:   total,
		Page:    page,
		PerPage: pageSize,
	}
	for i := range users {
		resp.Users = append(resp.Users, dto.NewUserResponse(&users[i], nil))
	}
	respondSuccess(c, http.StatusOK, "Users retrieved", resp)
}

// ExportUsers streams the full account list as an .xlsx report.
func (h *AdminHandler) ExportUsers(c *gin.Context) {
	// Page through everything; the export is an offline admin action.
	var users []entity.User
	for page := 1; ; page++ {
		batch, total, err := h.userService.ListUsers(c.Request.Context(), page, 100)
		if err != nil {
			respondAppError(c, err)
			return
		}
		users = append(users, batch...)
		if len(batch) == 0 || int64(len(users)) >= total {
			break
		}
	}

	filename := fmt.Sprintf("accounts-%s", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".xlsx"))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Accounts"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[AdminHandler] failed to create stream writer: %v", err)
		respondError(c, http.StatusInternalServerError, "Internal server error", nil)
		return
	}

	headers := []interface{}{"ID", "Email", "Username", "Full name", "Active", "Verified", "Deleted", "Created at"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[AdminHandler] failed to write header row: %v", err)
	}

	for i := range users {
		u := &users[i]
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{
			u.ID.String(),
			sanitizeForExcel(u.Email),
			sanitizeForExcel(u.Username),
			sanitizeForExcel(u.FullName()),
			yesNo(u.IsActive),
			yesNo(u.EmailVerified),
			yesNo(u.IsDeleted),
			u.CreatedAt.Format(time.RFC3339),
		}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[AdminHandler] failed to write row %d: %v", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[AdminHandler] failed to flush stream writer: %v", err)
		respondError(c, http.StatusInternalServerError, "Internal server error", nil)
		return
	}

	if err := f.Write(c.Writer); err != nil {
		log.Printf("[AdminHandler] failed to write xlsx response: %v", err)
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// sanitizeForExcel guards against formula injection in spreadsheet viewers.
func sanitizeForExcel(s string) string {
	if strings.HasPrefix(s, "=") || strings.HasPrefix(s, "+") ||
		strings.HasPrefix(s, "-") || strings.HasPrefix(s, "@") {
		return "'" + s
	}
	return s
}
