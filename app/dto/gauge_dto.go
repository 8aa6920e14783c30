// Package dto contains Data Transfer Objects for API request and response structures
package dto

// GaugeDTO represents one gauge in API responses
type GaugeDTO struct {
	ID               uint    `json:"id" example:"42"`
	UUID             string  `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	SerialNumber     string  `json:"serial_number" example:"TG-2024-0042"`
	SystemGaugeID    *string `json:"system_gauge_id,omitempty" example:"SP1001A"`
	EquipmentType    string  `json:"equipment_type" example:"thread_gauge"`
	CategoryID       uint    `json:"category_id" example:"3"`
	ThreadSize       string  `json:"thread_size" example:"0.500"`
	ThreadClass      string  `json:"thread_class" example:"2A"`
	ThreadType       string  `json:"thread_type" example:"UNC"`
	IsGoGauge        bool    `json:"is_go_gauge" example:"true"`
	OwnershipType    string  `json:"ownership_type" example:"company"`
	CustomerID       *uint   `json:"customer_id,omitempty" example:"7"`
	EmployeeOwnerID  *uint   `json:"employee_owner_id,omitempty"`
	Status           string  `json:"status" example:"available"`
	StorageLocation  string  `json:"storage_location" example:"Cabinet A3"`
	SealStatus       string  `json:"seal_status" example:"unsealed"`
	IsFixedLocation  bool    `json:"is_fixed_location" example:"false"`
	CompanionGaugeID *uint   `json:"companion_gauge_id,omitempty" example:"43"`
	IsSpare          bool    `json:"is_spare" example:"false"`
	CalibrationDueAt *string `json:"calibration_due_at,omitempty" example:"2027-01-15T00:00:00Z"`
	RetiredAt        *string `json:"retired_at,omitempty"`
	CreatedAt        string  `json:"created_at" example:"2026-01-15T10:30:00Z"`
	UpdatedAt        string  `json:"updated_at" example:"2026-01-15T10:30:00Z"`
}

// CreateGaugeInput carries the fields needed to create one gauge
type CreateGaugeInput struct {
	SerialNumber    string `json:"serial_number" validate:"required,min=1,max=100" example:"TG-2024-0042"`
	EquipmentType   string `json:"equipment_type" validate:"required,oneof=thread_gauge large_equipment hand_tool calibration_standard" example:"thread_gauge"`
	CategoryID      uint   `json:"category_id" validate:"required" example:"3"`
	ThreadSize      string `json:"thread_size" validate:"required,max=32" example:"1/2"`
	ThreadClass     string `json:"thread_class" validate:"required,max=16" example:"2A"`
	ThreadType      string `json:"thread_type" validate:"required,max=16" example:"UNC"`
	IsGoGauge       bool   `json:"is_go_gauge" example:"true"`
	OwnershipType   string `json:"ownership_type" validate:"required,oneof=company customer employee" example:"company"`
	CustomerID      *uint  `json:"customer_id,omitempty" validate:"omitempty" example:"7"`
	EmployeeOwnerID *uint  `json:"employee_owner_id,omitempty" validate:"omitempty"`
	IsFixedLocation bool   `json:"is_fixed_location" example:"false"`
}

// UpdateGaugeRequest carries the full editable gauge surface. Fields that are
// immutable after creation (serial number, equipment type, category,
// ownership) may be submitted but are rejected if they differ from the
// stored values.
type UpdateGaugeRequest struct {
	SerialNumber    *string `json:"serial_number,omitempty" validate:"omitempty,min=1,max=100" example:"TG-2024-0042"`
	EquipmentType   *string `json:"equipment_type,omitempty" validate:"omitempty,oneof=thread_gauge large_equipment hand_tool calibration_standard"`
	CategoryID      *uint   `json:"category_id,omitempty"`
	OwnershipType   *string `json:"ownership_type,omitempty" validate:"omitempty,oneof=company customer employee"`
	CustomerID      *uint   `json:"customer_id,omitempty"`
	EmployeeOwnerID *uint   `json:"employee_owner_id,omitempty"`
	ThreadSize      *string `json:"thread_size,omitempty" validate:"omitempty,max=32" example:"1/2"`
	ThreadClass     *string `json:"thread_class,omitempty" validate:"omitempty,max=16" example:"2A"`
	ThreadType      *string `json:"thread_type,omitempty" validate:"omitempty,max=16" example:"UNC"`
	SealStatus      *string `json:"seal_status,omitempty" validate:"omitempty,oneof=sealed unsealed" example:"sealed"`
	IsFixedLocation *bool   `json:"is_fixed_location,omitempty"`
}

// ListGaugesRequest carries the gauge list filters
type ListGaugesRequest struct {
	PaginationRequest
	CategoryID     *uint   `json:"category_id,omitempty" query:"category_id"`
	Status         *string `json:"status,omitempty" query:"status" validate:"omitempty,max=32"`
	OwnershipType  *string `json:"ownership_type,omitempty" query:"ownership_type" validate:"omitempty,oneof=company customer employee"`
	CustomerID     *uint   `json:"customer_id,omitempty" query:"customer_id"`
	IsSpare        *bool   `json:"is_spare,omitempty" query:"is_spare"`
	IncludeRetired bool    `json:"include_retired,omitempty" query:"include_retired"`
}

// ChangeLocationRequest moves a gauge (and its companion) to a new location
type ChangeLocationRequest struct {
	GaugeID     uint   `json:"gauge_id" validate:"required" example:"42"`
	NewLocation string `json:"new_location" validate:"required,min=1,max=255" example:"Cabinet B1"`
}

// ChangeServiceStateRequest takes a gauge out of service or returns it
type ChangeServiceStateRequest struct {
	GaugeID uint    `json:"gauge_id" validate:"required" example:"42"`
	Reason  *string `json:"reason,omitempty" validate:"omitempty,max=500" example:"dropped on shop floor"`
}

// RetireGaugeRequest soft-deletes a gauge
type RetireGaugeRequest struct {
	GaugeID uint    `json:"gauge_id" validate:"required" example:"42"`
	Reason  *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}
