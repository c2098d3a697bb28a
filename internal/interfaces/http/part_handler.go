package http

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Tweltz1/Project-Tracking/internal/application/dto"
	"github.com/Tweltz1/Project-Tracking/internal/application/part"
	"github.com/Tweltz1/Project-Tracking/pkg/logger"
)

// PartHandler maneja las peticiones HTTP de piezas.
type PartHandler struct {
	uc  *part.UseCase
	log *logger.Logger
}

// NewPartHandler construye el handler.
func NewPartHandler(uc *part.UseCase, log *logger.Logger) *PartHandler {
	return &PartHandler{uc: uc, log: log}
}

// partID toma el id de la ruta (/parts/:id) o del query (?id=).
func partID(c *fiber.Ctx) string {
	if raw := c.Params("id"); raw != "" {
		if id, err := url.PathUnescape(raw); err == nil {
			return strings.TrimSpace(id)
		}
		return strings.TrimSpace(raw)
	}
	return strings.TrimSpace(c.Query("id"))
}

// bodyID id del cuerpo JSON ({"id": ...}) cuando no viene en la ruta ni en el query.
func bodyID(c *fiber.Ctx) string {
	if len(c.Body()) == 0 {
		return ""
	}
	var in struct {
		ID string `json:"id"`
	}
	if err := c.App().Config().JSONDecoder(c.Body(), &in); err != nil {
		return ""
	}
	return strings.TrimSpace(in.ID)
}

// resolveID ruta, luego query y por último cuerpo.
func resolveID(c *fiber.Ctx) string {
	if id := partID(c); id != "" {
		return id
	}
	return bodyID(c)
}

// List godoc
// @Summary      Listar piezas
// @Tags         parts
// @Security     Bearer
// @Produce      json
// @Param        q    query  string  false  "Búsqueda por nombre, serie, proyecto o estado"
// @Success      200  {array}   dto.PartResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/parts [get]
func (h *PartHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), c.Query("q"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener pieza por ID
// @Tags         parts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la pieza"
// @Success      200  {object}  dto.PartResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/parts/{id} [get]
func (h *PartHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), resolveID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear pieza
// @Tags         parts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePartRequest  true  "Datos de la pieza"
// @Success      201   {object}  dto.PartResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/parts [post]
func (h *PartHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePartRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Actualizar pieza
// @Description  Reemplaza los atributos descriptivos. La cantidad solo cambia con check-in/check-out.
// @Tags         parts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la pieza"
// @Param        body  body  dto.UpdatePartRequest  true  "Pieza completa"
// @Success      200   {object}  dto.PartResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/parts/{id} [put]
func (h *PartHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdatePartRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	id := partID(c)
	if id == "" {
		id = strings.TrimSpace(in.ID)
	}
	out, err := h.uc.Update(c.UserContext(), id, GetUserID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar pieza
// @Tags         parts
// @Security     Bearer
// @Param        id   path  string  true  "ID de la pieza"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/parts/{id} [delete]
func (h *PartHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), resolveID(c)); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CheckInOut godoc
// @Summary      Entrada o salida de unidades
// @Tags         parts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CheckInOutRequest  true  "Movimiento"
// @Success      200   {object}  dto.PartResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/parts/checkinout [post]
func (h *PartHandler) CheckInOut(c *fiber.Ctx) error {
	var in dto.CheckInOutRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CheckInOut(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// UpdateStatus godoc
// @Summary      Cambiar estado de la pieza
// @Tags         parts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la pieza"
// @Param        body  body  dto.UpdateStatusRequest  true  "Nuevo estado"
// @Success      200   {object}  dto.PartResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/parts/{id}/status [post]
func (h *PartHandler) UpdateStatus(c *fiber.Ctx) error {
	var in dto.UpdateStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.UpdateStatus(c.UserContext(), partID(c), GetUserID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Label godoc
// @Summary      Etiqueta PDF con código QR
// @Tags         parts
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la pieza"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/parts/{id}/label [get]
func (h *PartHandler) Label(c *fiber.Ctx) error {
	id := partID(c)
	out, err := h.uc.Label(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="part-`+url.PathEscape(id)+`.pdf"`)
	return c.Send(out)
}
