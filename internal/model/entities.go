package model

// Intent is the product category a request is about.
type Intent string

const (
	IntentComputer Intent = "computadora"
	IntentMemory   Intent = "memoria_ram"
	IntentStorage  Intent = "almacenamiento"
	IntentPrinter  Intent = "impresora"
	IntentUnknown  Intent = "desconocido"
)

// RequestedSpecs are the hardware fields a user stated explicitly.
type RequestedSpecs struct {
	RAMGB       *int   `json:"ram_gb"`
	StorageGB   *int   `json:"storage_gb"`
	StorageType string `json:"storage_type,omitempty"`
	CPUBrand    string `json:"cpu_brand,omitempty"`
	GPUModel    string `json:"gpu_model,omitempty"`
	GPURequired *bool  `json:"gpu_required"`
}

// Entities is the structured reading of a free-text request.
type Entities struct {
	Purpose  []string       `json:"purpose"`
	Specs    RequestedSpecs `json:"specs"`
	Budget   string         `json:"budget,omitempty"`
	Modality []string       `json:"modality"`
	MinPrice *float64       `json:"min_price"`
	MaxPrice *float64       `json:"max_price"`
}

// EmptyEntities is the all-null value substituted when extraction fails.
func EmptyEntities() Entities {
	return Entities{
		Purpose:  []string{},
		Modality: []string{},
	}
}
