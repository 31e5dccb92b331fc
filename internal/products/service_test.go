package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/avelarde/shopfront-backend/pkg/db"
	"github.com/avelarde/shopfront-backend/pkg/db/models"
	"github.com/avelarde/shopfront-backend/pkg/enums"
	pkgerrors "github.com/avelarde/shopfront-backend/pkg/errors"
	"github.com/avelarde/shopfront-backend/pkg/logger"
)

func newProductsService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:products_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Product{},
		&models.ProductVariant{},
	))
	svc := NewService(NewRepository(conn), db.NewFromConn(conn), logger.New(logger.Options{ServiceName: "test"}))
	return svc, conn
}

func TestCreateProductWithVariants(t *testing.T) {
	svc, _ := newProductsService(t)

	attrs := `{"size":"L"}`
	price := decimal.RequireFromString("12.50")
	view, err := svc.Create(context.Background(), CreateInput{
		Title:      "Ceramic Mug",
		Price:      decimal.RequireFromString("10.00"),
		TrackStock: true,
		Stock:      20,
		Variants: []VariantInput{
			{SkuCode: "MUG-L", Attrs: &attrs, Price: &price, Stock: 5},
		},
	})
	require.NoError(t, err)
	assert.True(t, view.IsActive, "products default to active")
	require.Len(t, view.Variants, 1)
	assert.Equal(t, "MUG-L", view.Variants[0].SkuCode)
	assert.Equal(t, enums.VariantStatusActive, view.Variants[0].Status)
}

func TestCreateProductRejectsNegativePrice(t *testing.T) {
	svc, _ := newProductsService(t)

	_, err := svc.Create(context.Background(), CreateInput{
		Title: "Ceramic Mug",
		Price: decimal.RequireFromString("-1.00"),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUpdateProductPartial(t *testing.T) {
	svc, _ := newProductsService(t)

	created, err := svc.Create(context.Background(), CreateInput{
		Title: "Ceramic Mug",
		Price: decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)

	newPrice := decimal.RequireFromString("11.00")
	inactive := false
	view, err := svc.Update(context.Background(), created.ID, UpdateInput{
		Price:    &newPrice,
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.True(t, view.Price.Equal(newPrice))
	assert.False(t, view.IsActive)
	assert.Equal(t, "Ceramic Mug", view.Title, "untouched fields survive")
}

func TestCreateHonorsExplicitInactive(t *testing.T) {
	svc, conn := newProductsService(t)

	hidden := false
	view, err := svc.Create(context.Background(), CreateInput{
		Title:    "Draft Mug",
		Price:    decimal.RequireFromString("10.00"),
		IsActive: &hidden,
	})
	require.NoError(t, err)
	assert.False(t, view.IsActive)

	var row models.Product
	require.NoError(t, conn.First(&row, "id = ?", view.ID).Error)
	assert.False(t, row.IsActive, "explicit false must survive the insert")
}

func TestListActiveOnlyHidesDisabled(t *testing.T) {
	svc, _ := newProductsService(t)

	_, err := svc.Create(context.Background(), CreateInput{
		Title: "Visible",
		Price: decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)

	hidden := false
	_, err = svc.Create(context.Background(), CreateInput{
		Title:    "Hidden",
		Price:    decimal.RequireFromString("10.00"),
		IsActive: &hidden,
	})
	require.NoError(t, err)

	storefront, err := svc.List(context.Background(), ListParams{ActiveOnly: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), storefront.Total)
	require.Len(t, storefront.Items, 1)
	assert.Equal(t, "Visible", storefront.Items[0].Title)

	admin, err := svc.List(context.Background(), ListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), admin.Total)
}

func TestReplaceVariantsSwapsSkuSet(t *testing.T) {
	svc, conn := newProductsService(t)

	created, err := svc.Create(context.Background(), CreateInput{
		Title: "Ceramic Mug",
		Price: decimal.RequireFromString("10.00"),
		Variants: []VariantInput{
			{SkuCode: "MUG-S", Stock: 3},
			{SkuCode: "MUG-M", Stock: 3},
		},
	})
	require.NoError(t, err)

	disabled := false
	view, err := svc.ReplaceVariants(context.Background(), created.ID, []VariantInput{
		{SkuCode: "MUG-L", Stock: 7},
		{SkuCode: "MUG-XL", Stock: 2, Active: &disabled},
	})
	require.NoError(t, err)
	require.Len(t, view.Variants, 2)
	assert.Equal(t, "MUG-L", view.Variants[0].SkuCode)
	assert.Equal(t, enums.VariantStatusDisabled, view.Variants[1].Status)

	var count int64
	require.NoError(t, conn.Model(&models.ProductVariant{}).Where("product_id = ?", created.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count, "old SKUs must be gone")
}

func TestDeleteProduct(t *testing.T) {
	svc, _ := newProductsService(t)

	created, err := svc.Create(context.Background(), CreateInput{
		Title: "Ceramic Mug",
		Price: decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))

	_, err = svc.Get(context.Background(), created.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	err = svc.Delete(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
