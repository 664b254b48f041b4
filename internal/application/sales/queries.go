package sales

import (
	"context"

	"github.com/tu-usuario/pos-backoffice/internal/domain"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
)

// GetByID obtiene una venta con sus líneas.
func (uc *SaleUseCase) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	sale, err := uc.saleRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	return sale, nil
}

// ListBySucursal lista ventas de una sucursal con paginación.
func (uc *SaleUseCase) ListBySucursal(_ context.Context, sucursalID string, limit, offset int) ([]*entity.Sale, error) {
	if sucursalID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.saleRepo.ListBySucursal(sucursalID, limit, offset)
}

// LastFolio devuelve el último folio asignado en la sucursal, para numeración
// en el punto de venta. No es garantía dura de secuencia: el folio definitivo
// se asigna dentro de la transacción de creación.
func (uc *SaleUseCase) LastFolio(_ context.Context, sucursalID string) (int64, error) {
	if sucursalID == "" {
		return 0, domain.ErrInvalidInput
	}
	return uc.saleRepo.LastFolio(sucursalID)
}
