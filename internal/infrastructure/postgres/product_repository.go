package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/pos-backoffice/internal/domain"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
	"github.com/tu-usuario/pos-backoffice/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, sucursal_id, sku, nombre, precio, costo, tasa_impuesto, stock, stock_min, es_servicio, created_at, updated_at`

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(
		&p.ID, &p.SucursalID, &p.SKU, &p.Name, &p.Price, &p.Cost, &p.TaxRate,
		&p.Stock, &p.StockMin, &p.IsService, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// Create persiste un nuevo producto con su receta.
func (r *ProductRepo) Create(product *entity.Product) error {
	query := `
		INSERT INTO productos (id, sucursal_id, sku, nombre, precio, costo, tasa_impuesto, stock, stock_min, es_servicio, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(context.Background(), query,
		product.ID, product.SucursalID, product.SKU, product.Name, product.Price,
		product.Cost, product.TaxRate, product.Stock, product.StockMin, product.IsService,
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert producto: %w", err)
	}
	return r.insertBOM(product.ID, product.Insumos)
}

// GetByID obtiene un producto por ID (sin receta).
func (r *ProductRepo) GetByID(id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM productos WHERE id = $1`
	p, err := scanProduct(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		return nil, fmt.Errorf("get producto: %w", err)
	}
	return p, nil
}

// GetWithBOM obtiene un producto con sus insumos cargados.
func (r *ProductRepo) GetWithBOM(id string) (*entity.Product, error) {
	p, err := r.GetByID(id)
	if err != nil || p == nil {
		return p, err
	}
	rows, err := r.q.Query(context.Background(), `
		SELECT id, producto_id, componente_id, cantidad_por_unidad
		FROM producto_insumos WHERE producto_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("list insumos: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e entity.BomEntry
		if err := rows.Scan(&e.ID, &e.ProductID, &e.ComponentProductID, &e.QuantityPerUnit); err != nil {
			return nil, fmt.Errorf("scan insumo: %w", err)
		}
		p.Insumos = append(p.Insumos, e)
	}
	return p, rows.Err()
}

// GetBySucursalAndSKU obtiene un producto por sucursal y SKU.
func (r *ProductRepo) GetBySucursalAndSKU(sucursalID, sku string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM productos WHERE sucursal_id = $1 AND sku = $2`
	p, err := scanProduct(r.q.QueryRow(context.Background(), query, sucursalID, sku))
	if err != nil {
		return nil, fmt.Errorf("get producto by sku: %w", err)
	}
	return p, nil
}

// Update actualiza un producto existente. No toca stock: eso es del motor de ventas.
func (r *ProductRepo) Update(product *entity.Product) error {
	query := `
		UPDATE productos SET nombre = $2, precio = $3, costo = $4, tasa_impuesto = $5, stock_min = $6, updated_at = $7
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		product.ID, product.Name, product.Price, product.Cost, product.TaxRate,
		product.StockMin, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update producto: %w", err)
	}
	return nil
}

// ReplaceBOM reemplaza la receta completa del producto.
func (r *ProductRepo) ReplaceBOM(productID string, entries []entity.BomEntry) error {
	_, err := r.q.Exec(context.Background(),
		`DELETE FROM producto_insumos WHERE producto_id = $1`, productID)
	if err != nil {
		return fmt.Errorf("delete insumos: %w", err)
	}
	return r.insertBOM(productID, entries)
}

func (r *ProductRepo) insertBOM(productID string, entries []entity.BomEntry) error {
	for _, e := range entries {
		_, err := r.q.Exec(context.Background(), `
			INSERT INTO producto_insumos (id, producto_id, componente_id, cantidad_por_unidad)
			VALUES ($1, $2, $3, $4)`,
			e.ID, productID, e.ComponentProductID, e.QuantityPerUnit,
		)
		if err != nil {
			return fmt.Errorf("insert insumo: %w", err)
		}
	}
	return nil
}

// ListBySucursal lista productos por sucursal con paginación.
func (r *ProductRepo) ListBySucursal(sucursalID string, limit, offset int) ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM productos WHERE sucursal_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, sucursalID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list productos: %w", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.SucursalID, &p.SKU, &p.Name, &p.Price, &p.Cost, &p.TaxRate,
			&p.Stock, &p.StockMin, &p.IsService, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan producto: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// AdjustStock aplica un delta con signo en una sola sentencia condicional:
// el guard de inventario negativo y la mutación son atómicos, de modo que
// ventas concurrentes sobre el mismo producto no pueden sobrevender.
func (r *ProductRepo) AdjustStock(productID string, delta decimal.Decimal, allowNegative bool) (*repository.StockLevel, error) {
	query := `
		UPDATE productos
		SET stock = stock + $2, updated_at = now()
		WHERE id = $1 AND ($3 OR stock + $2 >= 0)
		RETURNING id, nombre, stock, stock_min`
	var level repository.StockLevel
	err := r.q.QueryRow(context.Background(), query, productID, delta, allowNegative).Scan(
		&level.ProductID, &level.ProductName, &level.Quantity, &level.StockMin,
	)
	if err == nil {
		return &level, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("adjust stock: %w", err)
	}

	// Guard fallido o producto inexistente: releer para distinguir y armar el error.
	p, rerr := r.GetByID(productID)
	if rerr != nil {
		return nil, rerr
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return nil, &domain.InsufficientStockError{
		ProductName: p.Name,
		Available:   p.Stock,
		Requested:   delta.Neg(),
	}
}
