package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/DanielTrujilloS/DafaMedicSistema/models"
	"github.com/DanielTrujilloS/DafaMedicSistema/repository"
)

var StarterProducts = []models.Product{
	{
		Name:        "Oxímetro de Pulso Profesional",
		Slug:        "oximetro-pulso-profesional",
		Brand:       "Riester",
		PriceCents:  18000,
		Stock:       25,
		Description: "Oxímetro confiable para medición de SpO2 y frecuencia cardíaca.",
		Images:      []string{"https://example.com/oximetro.jpg"},
		IsActive:    true,
	},
	{
		Name:        "Glucometro Accu Check Instant",
		Slug:        "glucometro-accu-check-instant",
		Brand:       "Accu Check",
		PriceCents:  4500,
		Stock:       40,
		Description: "Glucometro fácil de usar con resultados rápidos y precisos.",
		Images:      []string{"https://example.com/glucometro.jpg"},
		IsActive:    true,
	},
	{
		Name:        "Estetoscopio Profesional",
		Slug:        "estetoscopio-profesional",
		Brand:       "Dafa Medic",
		PriceCents:  32000,
		Stock:       15,
		Description: "Estetoscopio de alta sensibilidad para diagnóstico clínico.",
		Images:      []string{"https://example.com/estetoscopio.jpg"},
		IsActive:    true,
	},
}

// Seed creates the admin account and the starter catalog. Existing rows are
// left as they are, so it is safe to run on every start.
func Seed(ctx context.Context, users repository.UserRepository, products repository.ProductRepository, adminEmail, adminPassword string) error {
	if adminPassword == "" {
		return errors.New("admin password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin, err := users.Upsert(ctx, models.User{
		Email:        adminEmail,
		FullName:     "Administrador Dafa Medic",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		IsActive:     true,
	})
	if err != nil {
		return err
	}
	slog.Info("Admin user ready", "email", admin.Email)

	n, err := products.Seed(ctx, StarterProducts)
	if err != nil {
		return err
	}
	slog.Info("Seeded products", "inserted", n, "total", len(StarterProducts))
	return nil
}
