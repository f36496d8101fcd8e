package di

import "github.com/Emirlan007/Cassini-shop-sub001/internal/domain"

// sampleProducts seeds the memory driver so a local server can take cart and order traffic.
func sampleProducts() []domain.Product {
	tenPercent := 10.0
	return []domain.Product{
		{ID: "sample-tee", Title: "Cotton T-shirt", Image: "/images/sample-tee.jpg", Price: 1500},
		{ID: "sample-hoodie", Title: "Zip hoodie", Image: "/images/sample-hoodie.jpg", Price: 4200, DiscountPercent: &tenPercent},
		{ID: "sample-cap", Title: "Baseball cap", Image: "/images/sample-cap.jpg", Price: 900},
	}
}
