package server

import (
	"context"
	"net/http"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"

	"fieldsite-api/internal/config"
	"fieldsite-api/internal/handlers"
	"fieldsite-api/internal/middleware"
	"fieldsite-api/internal/router"
	"fieldsite-api/internal/services"
)

// Services holds all initialized services for the application
type Services struct {
	Storage   *services.R2Service
	Firestore *services.FirestoreService
	Geocoder  *services.GeocodingService
	Extractor *services.ExtractorService
	Upload    *services.UploadService
	Catalog   *services.CatalogService
}

// InitServices initializes all application services based on configuration.
// Returns the initialized services or an error if initialization fails.
func InitServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	// Configure Firebase credentials
	var opts []option.ClientOption
	if cfg.FirebaseCredentialsJSON != "" {
		// Use JSON credentials from environment variable
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.FirebaseCredentialsJSON)))
	} else {
		// Use credentials file (for local development)
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsPath))
	}

	// Initialize Firestore client
	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProjectID, opts...)
	if err != nil {
		return nil, err
	}

	// Initialize R2 storage client
	storageService, err := services.NewR2Service(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Initialize core services
	firestoreService := services.NewFirestoreService(firestoreClient, cfg.FirestoreCollection)
	geocodingService := services.NewGeocodingService(cfg.GeocodeEndpoint, cfg.GeocodeAPIKey)
	extractorService := services.NewExtractorService(cfg.ExtractorURL)
	uploadService := services.NewUploadService(firestoreService, storageService, geocodingService, extractorService)
	catalogService := services.NewCatalogService(firestoreService, storageService)

	return &Services{
		Storage:   storageService,
		Firestore: firestoreService,
		Geocoder:  geocodingService,
		Extractor: extractorService,
		Upload:    uploadService,
		Catalog:   catalogService,
	}, nil
}

// CreateHandler creates an HTTP handler with all middleware applied
func CreateHandler(svcs *Services, cfg *config.Config) http.Handler {
	// Initialize handlers
	h := handlers.New(svcs.Upload, svcs.Catalog, cfg.MaxUploadBytes)

	// Setup router with middleware
	mux := router.Setup(h)

	// Apply global middleware
	wrappedHandler := middleware.Logger(mux)
	wrappedHandler = middleware.RequestID(wrappedHandler)
	wrappedHandler = middleware.CORS(wrappedHandler, cfg.AllowedOrigins)

	return wrappedHandler
}
