package entity

import "time"

// Branch representa una sucursal: dueña de su política de inventario
// y del correo al que se envían las alertas.
type Branch struct {
	ID                     string
	Name                   string
	Address                string
	AllowNegativeInventory bool
	NotificationEmail      string // vacío = sin alertas por correo
	CreatedAt              time.Time
	UpdatedAt              time.Time
}
