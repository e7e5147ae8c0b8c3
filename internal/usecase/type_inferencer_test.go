package usecase

import (
	"testing"

	"github.com/rigsync/backend/internal/domain"
)

func categorized(brand, model, category, subCategory string) domain.CatalogProduct {
	p := product(brand, model, "")
	p.Category = category
	p.SubCategory = subCategory
	return p
}

func TestInferTypes(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{})
	inferencer := NewTypeInferencer(n)

	robin := categorized("Robe", "Robin 600", "Lighting", "Moving Head")
	pointe := categorized("Robe", "Pointe", "Lighting", "Moving Head")
	sm58 := categorized("Shure", "SM58", "Audio", "Microphone")
	dn360 := categorized("Klark-Teknik", "DN360", "Audio", "Processing")
	das := categorized("DAS", "Altea 415", "Audio", "Speaker")
	catalog := NewCatalogSnapshot(n, []domain.CatalogProduct{robin, pointe, sm58, dn360, das})

	tests := []struct {
		name        string
		description string
		matched     []domain.CatalogProduct
		want        domain.InferredTypes
	}{
		{
			name:        "plurality over matches",
			description: "Robe moving head spot",
			matched:     []domain.CatalogProduct{sm58, robin, pointe},
			want:        domain.InferredTypes{Category: "Lighting", SubCategory: "Moving Head", Brand: "Robe"},
		},
		{
			name:        "ties go to the first seen value",
			description: "Shure wireless handheld",
			matched:     []domain.CatalogProduct{sm58, robin},
			want:        domain.InferredTypes{Category: "Audio", SubCategory: "Microphone", Brand: "Shure"},
		},
		{
			name:        "brand from description then brand category",
			description: "Robe LEDBeam 150 Movinghead",
			want:        domain.InferredTypes{Category: "Lighting", Brand: "Robe"},
		},
		{
			name:        "brand alias in description",
			description: "KT DN 360 graphic eq",
			want:        domain.InferredTypes{Category: "Audio", Brand: "Klark-Teknik"},
		},
		{
			name:        "brand must be a whole word",
			description: "Dashboard mount for camera",
			want:        domain.InferredTypes{},
		},
		{
			name:        "nothing known",
			description: "Vintage tape echo unit",
			want:        domain.InferredTypes{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := inferencer.InferTypes(tt.description, tt.matched, catalog)
			if got != tt.want {
				t.Errorf("InferTypes() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPlurality(t *testing.T) {
	products := []domain.CatalogProduct{
		{Category: ""},
		{Category: "Video"},
		{Category: "Audio"},
		{Category: "Audio"},
	}
	got := plurality(products, func(p domain.CatalogProduct) string { return p.Category })
	if got != "Audio" {
		t.Errorf("plurality() = %q, want Audio", got)
	}

	if got := plurality(nil, func(p domain.CatalogProduct) string { return p.Category }); got != "" {
		t.Errorf("plurality(nil) = %q, want empty", got)
	}
}
