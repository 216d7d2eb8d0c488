package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/inventar/internal/apperr"
	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

// DevicesHandler handles device endpoints.
type DevicesHandler struct {
	DB    *db.DB
	clock clock
}

type createDeviceRequest struct {
	DeviceName  string  `json:"device_name"`
	ObjectName  string  `json:"object_name"`
	Description *string `json:"description"`
	DeviceCount int     `json:"device_count"`
}

type createDeviceResponse struct {
	OK     bool          `json:"ok"`
	Device *model.Device `json:"device"`
	Time   string        `json:"time"`
}

type multipleDevicesResponse struct {
	Multiple bool           `json:"multiple"`
	Devices  []model.Device `json:"devices"`
}

// Create handles POST /api/devices. Adding a name that already exists in
// the object increases its count.
func (h *DevicesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDeviceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.DeviceCount == 0 {
		req.DeviceCount = 1
	}

	device, err := store.CreateOrIncrementDevice(r.Context(), h.DB,
		req.DeviceName, req.ObjectName, req.Description, req.DeviceCount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("device added", "user", GetUser(r.Context()).Username,
		"device", device.DeviceName, "object", device.ObjectName,
		"added", req.DeviceCount, "total", device.DeviceCount)
	jsonResponse(w, http.StatusCreated, createDeviceResponse{OK: true, Device: device, Time: h.clock.stamp()})
}

// Get handles GET /api/devices/{id}.
func (h *DevicesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "invalid_device_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	device, err := store.GetDevice(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, device)
}

// GetByName handles GET /api/devices/by-name. A unique match is returned as
// the device itself; several matches are returned as candidates.
func (h *DevicesHandler) GetByName(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	name := query.Get("device_name")
	if name == "" {
		writeError(w, r, apperr.InvalidInput("device_name_required"))
		return
	}

	var description *string
	if query.Has("description") {
		d := query.Get("description")
		description = &d
	}

	match, err := store.FindDeviceByName(r.Context(), h.DB, name, query.Get("object_name"), description)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if match.Multiple {
		jsonResponse(w, http.StatusOK, multipleDevicesResponse{Multiple: true, Devices: match.Devices})
		return
	}
	jsonResponse(w, http.StatusOK, match.Device)
}

// List handles GET /api/devices.
func (h *DevicesHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := queryPage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	query := r.URL.Query()
	devices, err := store.ListDevices(r.Context(), h.DB, query.Get("q"), query.Get("object_name"), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if devices == nil {
		devices = []model.Device{}
	}
	jsonResponse(w, http.StatusOK, devices)
}
