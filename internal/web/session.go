package web

import (
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/sweetdelights/bakery-mcp/internal/catalog"
	"github.com/sweetdelights/bakery-mcp/internal/llm"
)

const sessionCookie = "bakery_session"

const greeting = "Hello! I'm your AI Bakery Assistant. Ask me anything!"

// session is one browser's cart and chat history.
type session struct {
	mu   sync.Mutex
	Cart []catalog.Product
	Chat []llm.ChatMessage
}

func (s *session) addToCart(p catalog.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cart = append(s.Cart, p)
}

func (s *session) removeFromCart(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index >= 0 && index < len(s.Cart) {
		s.Cart = append(s.Cart[:index], s.Cart[index+1:]...)
	}
}

func (s *session) clearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cart = nil
}

func (s *session) cartSnapshot() ([]catalog.Product, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]catalog.Product, len(s.Cart))
	copy(items, s.Cart)
	var total float64
	for _, item := range items {
		total += item.Price
	}
	return items, total
}

func (s *session) appendChat(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Chat = append(s.Chat, llm.ChatMessage{Role: role, Content: content})
}

// resetChat drops the conversation back to the opening greeting.
func (s *session) resetChat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Chat = []llm.ChatMessage{{Role: "assistant", Content: greeting}}
}

func (s *session) chatSnapshot() []llm.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]llm.ChatMessage, len(s.Chat))
	copy(out, s.Chat)
	return out
}

// sessions is an in-memory session store keyed by a uuid cookie.
type sessions struct {
	mu   sync.Mutex
	byID map[string]*session
}

func newSessions() *sessions {
	return &sessions{byID: make(map[string]*session)}
}

// get returns the request's session, creating it (and setting the cookie)
// when absent.
func (ss *sessions) get(w http.ResponseWriter, r *http.Request) *session {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		id = c.Value
	} else {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
		})
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()
	s, ok := ss.byID[id]
	if !ok {
		s = &session{
			Chat: []llm.ChatMessage{{Role: "assistant", Content: greeting}},
		}
		ss.byID[id] = s
	}
	return s
}
