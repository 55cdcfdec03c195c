package entity

import "time"

// Tipos de movimiento de inventario.
const (
	MovementEntrada = "entrada"
	MovementSalida  = "salida"
	MovementAjuste  = "ajuste"
)

// Tipos de referencia (causa del movimiento).
const (
	ReferenceOrder    = "Order"
	ReferenceTransfer = "transfer"
	ReferenceImport   = "import"
	ReferenceManual   = "manual"
)

// InventoryMovement registro inmutable de un cambio de stock. Nunca se actualiza ni se borra.
// Quantity siempre es positiva; el sentido lo da Type (en ajuste es |delta|).
type InventoryMovement struct {
	ID            string
	CompanyID     string
	ProductID     string
	WarehouseID   string
	Quantity      int
	Type          string
	ReferenceType string
	ReferenceID   string
	ExecutedBy    string
	CreatedAt     time.Time
}

// ValidMovementType indica si t es un tipo conocido.
func ValidMovementType(t string) bool {
	switch t {
	case MovementEntrada, MovementSalida, MovementAjuste:
		return true
	}
	return false
}
