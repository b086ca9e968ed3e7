// Package web serves the Sweet Delights shop UI: a product storefront, a
// per-session cart, and the assistant chat backed by the catalog server
// subprocess.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/sweetdelights/bakery-mcp/internal/catalog"
	"github.com/sweetdelights/bakery-mcp/internal/config"
	"github.com/sweetdelights/bakery-mcp/internal/llm"
	"github.com/sweetdelights/bakery-mcp/pkg/client"
)

// sampleQuestions seed the assistant page sidebar.
var sampleQuestions = []string{
	"What are your most popular products?",
	"Do you have any vegan options?",
	"Show me chocolate cakes",
	"What gluten-free products do you have?",
	"Tell me about your croissants",
}

// Server is the shop UI. When the catalog server connection is unhealthy it
// falls back to the built-in demo catalog so the storefront keeps working.
type Server struct {
	cfg      config.WebConfig
	rpc      *client.Client
	fallback *catalog.Catalog
	sessions *sessions
	log      zerolog.Logger
}

func NewServer(cfg config.WebConfig, rpc *client.Client, log zerolog.Logger) *Server {
	return &Server{
		cfg:      cfg,
		rpc:      rpc,
		fallback: catalog.Default(),
		sessions: newSessions(),
		log:      log,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleShop)
	r.Post("/cart/add", s.handleCartAdd)
	r.Post("/cart/remove", s.handleCartRemove)
	r.Post("/cart/checkout", s.handleCheckout)
	r.Get("/assistant", s.handleAssistant)
	r.Post("/assistant", s.handleAssistantPost)
	r.Post("/assistant/clear", s.handleAssistantClear)
	r.Post("/reconnect", s.handleReconnect)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// shopFilters are the storefront query parameters.
type shopFilters struct {
	Category string
	MaxPrice float64
	Dietary  string
}

func filtersFromRequest(r *http.Request) shopFilters {
	f := shopFilters{
		Category: r.URL.Query().Get("category"),
		Dietary:  r.URL.Query().Get("dietary"),
		MaxPrice: 50,
	}
	if raw := r.URL.Query().Get("max_price"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			f.MaxPrice = v
		}
	}
	return f
}

func (f shopFilters) apply(products []catalog.Product) []catalog.Product {
	var out []catalog.Product
	for _, p := range products {
		if f.Category != "" && f.Category != "All" && p.Category != f.Category {
			continue
		}
		if p.Price > f.MaxPrice {
			continue
		}
		if f.Dietary != "" && f.Dietary != "All" && !hasTag(p.DietaryInfo, f.Dietary) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}

// loadProducts reads the full catalog from the server, or serves the demo
// catalog when the connection is down.
func (s *Server) loadProducts(ctx context.Context) (products []catalog.Product, categories []string, live bool) {
	if s.rpc != nil && s.rpc.IsHealthy() {
		raw, err := s.readResource(ctx, "bakery://products/all")
		if err == nil {
			var fromServer []catalog.Product
			if err = json.Unmarshal(raw, &fromServer); err == nil {
				return fromServer, s.loadCategories(ctx, fromServer), true
			}
		}
		s.log.Warn().Err(err).Msg("catalog read failed, serving demo data")
	}
	return s.fallback.All(), s.fallback.Categories(), false
}

func (s *Server) loadCategories(ctx context.Context, products []catalog.Product) []string {
	raw, err := s.readResource(ctx, "bakery://products/categories")
	if err == nil {
		var cats []string
		if json.Unmarshal(raw, &cats) == nil {
			return cats
		}
	}
	return catalog.New(products).Categories()
}

func (s *Server) readResource(ctx context.Context, uri string) (json.RawMessage, error) {
	rpcCalls.WithLabelValues(uri).Inc()
	raw, err := s.rpc.ReadResource(ctx, uri)
	if err != nil {
		rpcFailures.WithLabelValues(uri).Inc()
	}
	return raw, err
}

func (s *Server) handleShop(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	filters := filtersFromRequest(r)
	products, categories, live := s.loadProducts(r.Context())
	items, total := sess.cartSnapshot()

	s.render(w, shopPage, shopView{
		Base:       s.base("Sweet Delights Bakery", live, len(items)),
		Products:   filters.apply(products),
		Categories: categories,
		Filters:    filters,
		CartItems:  items,
		CartTotal:  total,
		Flash:      r.URL.Query().Get("flash"),
	})
}

func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	id, err := strconv.Atoi(r.FormValue("product_id"))
	if err != nil {
		http.Error(w, "bad product id", http.StatusBadRequest)
		return
	}

	products, _, _ := s.loadProducts(r.Context())
	for _, p := range products {
		if p.ID == id {
			sess.addToCart(p)
			redirectFlash(w, r, "/", fmt.Sprintf("Added %s to cart!", p.Name))
			return
		}
	}
	http.Error(w, "product not found", http.StatusNotFound)
}

func (s *Server) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	index, err := strconv.Atoi(r.FormValue("index"))
	if err != nil {
		http.Error(w, "bad cart index", http.StatusBadRequest)
		return
	}
	sess.removeFromCart(index)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	items, total := sess.cartSnapshot()
	if len(items) == 0 {
		redirectFlash(w, r, "/", "Your cart is empty.")
		return
	}
	sess.clearCart()
	redirectFlash(w, r, "/", fmt.Sprintf("Order placed! %d items, $%.2f. Thank you!", len(items), total))
}

func (s *Server) handleAssistant(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	items, _ := sess.cartSnapshot()

	s.render(w, assistantPage, assistantView{
		Base:      s.base("AI Bakery Assistant", s.rpc != nil && s.rpc.IsHealthy(), len(items)),
		Chat:      sess.chatSnapshot(),
		Questions: sampleQuestions,
	})
}

// chatReply mirrors the assistant_chat tool payload.
type chatReply struct {
	ResponseText string `json:"response_text"`
}

func (s *Server) handleAssistantPost(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	input := strings.TrimSpace(r.FormValue("message"))
	if input == "" {
		http.Redirect(w, r, "/assistant", http.StatusSeeOther)
		return
	}

	history := sess.chatSnapshot()
	sess.appendChat("user", input)
	sess.appendChat("assistant", s.chat(r.Context(), input, history))
	http.Redirect(w, r, "/assistant", http.StatusSeeOther)
}

// chat runs one assistant turn over the server connection. Any failure
// degrades to a fixed apology so the page never errors out.
func (s *Server) chat(ctx context.Context, input string, history []llm.ChatMessage) string {
	chatTurns.Inc()
	if s.rpc == nil || !s.rpc.IsHealthy() {
		return "The assistant is offline right now. Use Reconnect on the shop page to bring it back."
	}

	rpcCalls.WithLabelValues("assistant_chat").Inc()
	raw, err := s.rpc.CallTool(ctx, "assistant_chat", map[string]interface{}{
		"user_input":   input,
		"chat_history": history,
	})
	if err != nil {
		rpcFailures.WithLabelValues("assistant_chat").Inc()
		s.log.Error().Err(err).Msg("assistant_chat call failed")
		return "Sorry, something went wrong talking to the assistant. Please try again."
	}

	var reply chatReply
	if err := json.Unmarshal(raw, &reply); err != nil || reply.ResponseText == "" {
		return "Sorry, I couldn't make sense of that. Please try again."
	}
	return reply.ResponseText
}

func (s *Server) handleAssistantClear(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	sess.resetChat()
	http.Redirect(w, r, "/assistant", http.StatusSeeOther)
}

func (s *Server) handleReconnect(w http.ResponseWriter, r *http.Request) {
	reconnects.Inc()
	if s.rpc != nil {
		if err := s.rpc.Connect(r.Context()); err != nil {
			s.log.Error().Err(err).Msg("reconnect failed")
			redirectFlash(w, r, "/", "Reconnect failed. Check the server logs.")
			return
		}
	}
	redirectFlash(w, r, "/", "Connected to the catalog server.")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := struct {
		State   string `json:"state"`
		Healthy bool   `json:"healthy"`
	}{State: client.Disconnected.String()}
	if s.rpc != nil {
		status.State = s.rpc.State().String()
		status.Healthy = s.rpc.IsHealthy()
	}

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		s.log.Error().Err(err).Msg("write health response")
	}
}

func (s *Server) base(title string, live bool, cartCount int) Base {
	state := client.Disconnected.String()
	if s.rpc != nil {
		state = s.rpc.State().String()
	}
	return Base{Title: title, Live: live, State: state, CartCount: cartCount}
}

func redirectFlash(w http.ResponseWriter, r *http.Request, path, flash string) {
	if flash != "" {
		path += "?flash=" + url.QueryEscape(flash)
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}
