package repository

import "github.com/tu-usuario/pos-backoffice/internal/domain/entity"

// CustomerRepository define el puerto de persistencia para clientes.
type CustomerRepository interface {
	Create(customer *entity.Customer) error
	GetByID(id string) (*entity.Customer, error)
	Update(customer *entity.Customer) error
	ListBySucursal(sucursalID string, limit, offset int) ([]*entity.Customer, error)
}
