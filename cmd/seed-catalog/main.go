// Command seed-catalog loads the demo jewelry catalog, the default category
// list and an admin account into MongoDB. Existing records are left alone so
// the command can be re-run safely.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/adornica/storefront/internal/domain/catalog"
	"github.com/adornica/storefront/internal/domain/identity"
	storemongo "github.com/adornica/storefront/internal/storage/mongo"
)

var defaultCategories = []string{"Necklace", "Ring", "Earring", "Bracelet", "Pendant", "Rakhi"}

type productJSON struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Weight      string          `json:"weight"`
	Image       string          `json:"image"`
	Rating      float64         `json:"rating"`
}

func main() {
	var (
		mongoURL      string
		mongoDatabase string
		productsFile  string
		adminEmail    string
		adminPassword string
	)

	flag.StringVar(&mongoURL, "mongo-url", "", "MongoDB connection URL (or MONGO_URL env)")
	flag.StringVar(&mongoDatabase, "mongo-database", "storefront", "MongoDB database name")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&adminEmail, "admin-email", "", "admin account email (or STOREFRONT_ADMIN_EMAIL env)")
	flag.StringVar(&adminPassword, "admin-password", "", "admin account password (or STOREFRONT_ADMIN_PASSWORD env)")
	flag.Parse()

	if mongoURL == "" {
		mongoURL = os.Getenv("MONGO_URL")
	}
	if mongoURL == "" {
		slog.Error("mongo URL is required: set --mongo-url or MONGO_URL")
		os.Exit(1)
	}
	if adminEmail == "" {
		adminEmail = os.Getenv("STOREFRONT_ADMIN_EMAIL")
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("STOREFRONT_ADMIN_PASSWORD")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, mongoURL, mongoDatabase, productsFile, adminEmail, adminPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, mongoURL, mongoDatabase, productsFile, adminEmail, adminPassword string) error {
	slog.Info("connecting to database")

	db, err := storemongo.Connect(ctx, mongoURL, mongoDatabase)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer func() {
		_ = db.Client().Disconnect(context.Background())
	}()

	if err := seedCategories(ctx, storemongo.NewCategoryRepository(db)); err != nil {
		return errors.Wrap(err, "seed categories")
	}

	if err := seedProducts(ctx, storemongo.NewProductRepository(db), productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if adminEmail != "" && adminPassword != "" {
		if err := seedAdmin(ctx, storemongo.NewUserRepository(db), adminEmail, adminPassword); err != nil {
			return errors.Wrap(err, "seed admin user")
		}
	} else {
		slog.Info("admin credentials not provided, skipping admin user")
	}

	return nil
}

func seedCategories(ctx context.Context, repo *storemongo.CategoryRepository) error {
	slog.Info("seeding default categories", slog.Int("count", len(defaultCategories)))

	for _, name := range defaultCategories {
		if _, err := repo.Add(ctx, name); err != nil {
			if errors.Is(err, catalog.ErrCategoryExists) {
				continue
			}
			return errors.Wrapf(err, "add category %s", name)
		}
		slog.Info("added category", slog.String("name", name))
	}
	return nil
}

func seedProducts(ctx context.Context, repo *storemongo.ProductRepository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	existing, err := repo.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list existing products")
	}
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[p.Name] = true
	}

	slog.Info("inserting products", slog.Int("count", len(products)))

	for _, p := range products {
		if seen[p.Name] {
			slog.Info("product exists, skipping", slog.String("name", p.Name))
			continue
		}

		id, err := repo.Create(ctx, &catalog.Product{
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Category:    p.Category,
			Weight:      p.Weight,
			Image:       p.Image,
			Rating:      p.Rating,
			Reviews:     0,
		})
		if err != nil {
			return errors.Wrapf(err, "create product %s", p.Name)
		}

		slog.Info("created product", slog.String("id", id), slog.String("name", p.Name))
	}

	return nil
}

func seedAdmin(ctx context.Context, repo *storemongo.UserRepository, email, password string) error {
	slog.Info("seeding admin user", slog.String("email", email))

	if err := repo.EnsureIndexes(ctx); err != nil {
		return errors.Wrap(err, "ensure indexes")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	err = repo.Create(ctx, &identity.User{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  "Administrator",
		Admin:        true,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			slog.Info("admin user already exists")
			return nil
		}
		return errors.Wrap(err, "create user")
	}

	slog.Info("created admin user", slog.String("email", email))
	return nil
}
