package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/erazemk/keramika/internal/cache"
	"github.com/erazemk/keramika/internal/contact"
	"github.com/erazemk/keramika/internal/kv"
	"github.com/erazemk/keramika/internal/media"
	"github.com/erazemk/keramika/internal/model"
	"github.com/erazemk/keramika/internal/translate"
)

// Options carries the dependencies of the API.
type Options struct {
	KV            *kv.Store
	SessionSecret string
	// PasswordHash is the bcrypt hash of the admin password.
	PasswordHash  string
	CookieSecure  bool
	Translate     *translate.Pipeline
	Contact       *contact.Service
	Media         media.Store
	SettingsCache *cache.TTL[string, model.Settings]
	CORSOrigins   []string
	// TrustProxy rewrites the client address from proxy headers. Rate
	// limits key on that address.
	TrustProxy bool

	// Requests per minute and IP; zero uses the defaults.
	LoginRateLimit   int
	ContactRateLimit int
}

const (
	defaultLoginRateLimit   = 10
	defaultContactRateLimit = 5
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(opts Options) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{
		KV:            opts.KV,
		SessionSecret: opts.SessionSecret,
		PasswordHash:  opts.PasswordHash,
		CookieSecure:  opts.CookieSecure,
	}
	productsHandler := &ProductsHandler{KV: opts.KV, Translate: opts.Translate}
	categoriesHandler := &CategoriesHandler{KV: opts.KV, Translate: opts.Translate}
	testimonialsHandler := &TestimonialsHandler{KV: opts.KV, Translate: opts.Translate}
	settingsHandler := &SettingsHandler{KV: opts.KV, Cache: opts.SettingsCache}
	sectionsHandler := &SectionsHandler{KV: opts.KV}
	galleryHandler := &GalleryHandler{KV: opts.KV}
	messagesHandler := &MessagesHandler{KV: opts.KV}
	uploadsHandler := &UploadsHandler{KV: opts.KV, Media: opts.Media}
	contactHandler := NewContactHandler(opts.Contact)

	admin := SessionMiddleware(opts.SessionSecret, opts.KV)
	loginLimit := httprate.LimitByIP(orDefault(opts.LoginRateLimit, defaultLoginRateLimit), time.Minute)
	contactLimit := httprate.LimitByIP(orDefault(opts.ContactRateLimit, defaultContactRateLimit), time.Minute)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Sessions.
	mux.Handle("POST /api/auth/login", loginLimit(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/auth/session", authHandler.Session)

	// Products: read (public), write (admin).
	mux.HandleFunc("GET /api/products", productsHandler.List)
	mux.Handle("POST /api/products", admin(http.HandlerFunc(productsHandler.Create)))
	mux.HandleFunc("GET /api/products/{id}", productsHandler.Get)
	mux.Handle("PUT /api/products/{id}", admin(http.HandlerFunc(productsHandler.Update)))
	mux.Handle("DELETE /api/products/{id}", admin(http.HandlerFunc(productsHandler.Delete)))

	// Categories.
	mux.HandleFunc("GET /api/categories", categoriesHandler.List)
	mux.Handle("POST /api/categories", admin(http.HandlerFunc(categoriesHandler.Create)))
	mux.HandleFunc("GET /api/categories/{id}", categoriesHandler.Get)
	mux.Handle("PUT /api/categories/{id}", admin(http.HandlerFunc(categoriesHandler.Update)))
	mux.Handle("DELETE /api/categories/{id}", admin(http.HandlerFunc(categoriesHandler.Delete)))

	// Testimonials.
	mux.HandleFunc("GET /api/testimonials", testimonialsHandler.List)
	mux.Handle("POST /api/testimonials", admin(http.HandlerFunc(testimonialsHandler.Create)))
	mux.HandleFunc("GET /api/testimonials/{id}", testimonialsHandler.Get)
	mux.Handle("PUT /api/testimonials/{id}", admin(http.HandlerFunc(testimonialsHandler.Update)))
	mux.Handle("DELETE /api/testimonials/{id}", admin(http.HandlerFunc(testimonialsHandler.Delete)))

	// Settings.
	mux.HandleFunc("GET /api/settings", settingsHandler.Public)
	mux.Handle("GET /api/admin/settings", admin(http.HandlerFunc(settingsHandler.Get)))
	mux.Handle("PUT /api/admin/settings", admin(http.HandlerFunc(settingsHandler.Update)))

	// Homepage sections.
	mux.HandleFunc("GET /api/homepage-sections", sectionsHandler.List)
	mux.Handle("PUT /api/homepage-sections", admin(http.HandlerFunc(sectionsHandler.Replace)))
	mux.Handle("PATCH /api/homepage-sections", admin(http.HandlerFunc(sectionsHandler.Patch)))

	// Gallery.
	mux.HandleFunc("GET /api/gallery", galleryHandler.List)
	mux.Handle("DELETE /api/gallery/{id}", admin(http.HandlerFunc(galleryHandler.Delete)))
	mux.Handle("GET /api/admin/gallery", admin(http.HandlerFunc(galleryHandler.List)))
	mux.Handle("POST /api/admin/gallery", admin(http.HandlerFunc(galleryHandler.Create)))
	mux.Handle("DELETE /api/admin/gallery/{id}", admin(http.HandlerFunc(galleryHandler.Delete)))

	// Contact form.
	mux.Handle("POST /api/contact", contactLimit(http.HandlerFunc(contactHandler.Submit)))
	mux.HandleFunc("POST /api/confirm-contact/{token}", contactHandler.Confirm)

	// Admin inbox.
	mux.Handle("GET /api/admin/messages", admin(http.HandlerFunc(messagesHandler.List)))
	mux.Handle("PATCH /api/admin/messages/{id}", admin(http.HandlerFunc(messagesHandler.SetReplied)))
	mux.Handle("DELETE /api/admin/messages/{id}", admin(http.HandlerFunc(messagesHandler.Delete)))

	// Uploads.
	mux.Handle("POST /api/upload", admin(http.HandlerFunc(uploadsHandler.Upload)))
	mux.HandleFunc("GET /api/uploads/{id}", uploadsHandler.Get)

	var handler http.Handler = mux
	if len(opts.CORSOrigins) > 0 {
		handler = cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Accept-Language", "Content-Type", "If-Match"},
			ExposedHeaders:   []string{"ETag"},
			AllowCredentials: true,
			MaxAge:           300,
		})(handler)
	}
	handler = middleware.Recoverer(handler)
	if opts.TrustProxy {
		handler = middleware.RealIP(handler)
	}
	return handler
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
