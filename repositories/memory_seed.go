package repositories

import (
	"time"

	"dz-fellah/models"

	"github.com/shopspring/decimal"
)

// SeedDemo loads a small catalog for DB_DRIVER=memory runs.
func SeedDemo(s *MemoryStore) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	daysAgo := func(n int) *time.Time {
		t := today.AddDate(0, 0, -n)
		return &t
	}
	d := decimal.RequireFromString

	alger := s.SeedProducer(models.ProducerContact{ShopName: "Ferme Bio Alger", Email: "ferme.alger@example.com"})
	tlemcen := s.SeedProducer(models.ProducerContact{ShopName: "Miel & Nature Tlemcen", Email: "miel.tlemcen@example.com"})
	oran := s.SeedProducer(models.ProducerContact{ShopName: "Les Jardins d'Oran", Email: "jardins.oran@example.com"})

	products := []models.Product{
		{ProducerID: alger.ID, Name: "Tomates Bio", SaleType: models.SaleTypeWeight, Price: d("280.00"), Stock: d("50.00"), ProductType: "Vegetables", HarvestDate: daysAgo(1)},
		{ProducerID: alger.ID, Name: "Carottes Bio", SaleType: models.SaleTypeWeight, Price: d("180.00"), Stock: d("35.00"), ProductType: "Vegetables", HarvestDate: daysAgo(3)},
		{ProducerID: alger.ID, Name: "Salade Bio", SaleType: models.SaleTypeUnit, Price: d("50.00"), Stock: d("30"), ProductType: "Vegetables", HarvestDate: daysAgo(0)},
		{ProducerID: tlemcen.ID, Name: "Miel de Jujubier", SaleType: models.SaleTypeUnit, Price: d("800.00"), Stock: d("20"), ProductType: "Honey"},
		{ProducerID: oran.ID, Name: "Oranges", SaleType: models.SaleTypeWeight, Price: d("150.00"), Stock: d("80.00"), ProductType: "Fruits", HarvestDate: daysAgo(4)},
		{ProducerID: oran.ID, Name: "Lben", SaleType: models.SaleTypeUnit, Price: d("90.00"), Stock: d("2"), ProductType: "Dairy", HarvestDate: daysAgo(5)},
	}
	for _, p := range products {
		s.SeedProduct(p)
	}
}
