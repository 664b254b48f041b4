package usecase

import (
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/pos-backoffice/internal/application/dto"
	"github.com/tu-usuario/pos-backoffice/internal/domain"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
	"github.com/tu-usuario/pos-backoffice/internal/domain/repository"
)

// BranchUseCase casos de uso CRUD para sucursales.
type BranchUseCase struct {
	repo repository.BranchRepository
}

// NewBranchUseCase construye el caso de uso.
func NewBranchUseCase(repo repository.BranchRepository) *BranchUseCase {
	return &BranchUseCase{repo: repo}
}

// Create crea una sucursal.
func (uc *BranchUseCase) Create(in dto.CreateBranchRequest) (*dto.BranchResponse, error) {
	if in.Nombre == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	branch := &entity.Branch{
		ID:                     uuid.New().String(),
		Name:                   in.Nombre,
		Address:                in.Direccion,
		AllowNegativeInventory: in.PermitirInventarioNegativo,
		NotificationEmail:      in.CorreoNotificaciones,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := uc.repo.Create(branch); err != nil {
		return nil, err
	}
	return toBranchResponse(branch), nil
}

// GetByID obtiene una sucursal.
func (uc *BranchUseCase) GetByID(id string) (*dto.BranchResponse, error) {
	branch, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, domain.ErrNotFound
	}
	return toBranchResponse(branch), nil
}

// Update actualiza nombre, dirección, política de inventario negativo y correo.
func (uc *BranchUseCase) Update(id string, in dto.UpdateBranchRequest) (*dto.BranchResponse, error) {
	branch, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, domain.ErrNotFound
	}
	if in.Nombre != "" {
		branch.Name = in.Nombre
	}
	if in.Direccion != "" {
		branch.Address = in.Direccion
	}
	if in.PermitirInventarioNegativo != nil {
		branch.AllowNegativeInventory = *in.PermitirInventarioNegativo
	}
	if in.CorreoNotificaciones != nil {
		branch.NotificationEmail = *in.CorreoNotificaciones
	}
	branch.UpdatedAt = time.Now()
	if err := uc.repo.Update(branch); err != nil {
		return nil, err
	}
	return toBranchResponse(branch), nil
}

// List lista sucursales con paginación.
func (uc *BranchUseCase) List(page dto.PageRequest) ([]*dto.BranchResponse, error) {
	page.DefaultPage()
	branches, err := uc.repo.List(page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.BranchResponse, 0, len(branches))
	for _, b := range branches {
		out = append(out, toBranchResponse(b))
	}
	return out, nil
}

func toBranchResponse(b *entity.Branch) *dto.BranchResponse {
	return &dto.BranchResponse{
		ID:                         b.ID,
		Nombre:                     b.Name,
		Direccion:                  b.Address,
		PermitirInventarioNegativo: b.AllowNegativeInventory,
		CorreoNotificaciones:       b.NotificationEmail,
	}
}
