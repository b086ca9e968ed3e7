package web

import (
	"html/template"
	"net/http"

	"github.com/sweetdelights/bakery-mcp/internal/catalog"
	"github.com/sweetdelights/bakery-mcp/internal/llm"
)

// Base carries the fields every page shows in its header.
type Base struct {
	Title     string
	Live      bool
	State     string
	CartCount int
}

type shopView struct {
	Base
	Products   []catalog.Product
	Categories []string
	Filters    shopFilters
	CartItems  []catalog.Product
	CartTotal  float64
	Flash      string
}

type assistantView struct {
	Base
	Chat      []llm.ChatMessage
	Questions []string
}

func (s *Server) render(w http.ResponseWriter, t *template.Template, view interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.Execute(w, view); err != nil {
		s.log.Error().Err(err).Str("page", t.Name()).Msg("render failed")
	}
}

const baseHead = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 72rem; margin: 0 auto; padding: 1rem; background: #fff8f0; }
nav a { margin-right: 1rem; }
.status { float: right; font-size: 0.9rem; }
.status.up { color: #2a7a2a; }
.status.down { color: #a33; }
.flash { background: #e7f6e7; border: 1px solid #2a7a2a; padding: 0.5rem 1rem; margin: 1rem 0; }
.grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(16rem, 1fr)); gap: 1rem; }
.card { background: white; border: 1px solid #e0d5c5; border-radius: 0.5rem; padding: 1rem; }
.card h3 { margin-top: 0; }
.price { font-weight: bold; color: #7a4a2a; }
.muted { color: #888; font-size: 0.85rem; }
.chat { background: white; border: 1px solid #e0d5c5; border-radius: 0.5rem; padding: 1rem; }
.msg-user { text-align: right; margin: 0.5rem 0; }
.msg-assistant { text-align: left; margin: 0.5rem 0; white-space: pre-wrap; }
.sidebar { float: right; width: 18rem; margin-left: 1rem; }
form.inline { display: inline; }
</style>
</head>
<body>
<nav>
<a href="/">🧁 Shop</a>
<a href="/assistant">🤖 Assistant</a>
<span>🛒 Cart ({{.CartCount}})</span>
{{if .Live}}<span class="status up">server: {{.State}}</span>
{{else}}<span class="status down">server: {{.State}}
<form class="inline" method="post" action="/reconnect"><button>Reconnect</button></form></span>{{end}}
</nav>
<h1>{{.Title}}</h1>
`

var shopPage = template.Must(template.New("shop").Parse(baseHead + `
{{if .Flash}}<div class="flash">{{.Flash}}</div>{{end}}
{{if not .Live}}<p class="muted">Showing demo catalog while the server is offline.</p>{{end}}

<div class="sidebar">
<div class="card">
<h3>Filters</h3>
<form method="get" action="/">
<label>Category
<select name="category">
<option>All</option>
{{$sel := .Filters.Category}}
{{range .Categories}}<option{{if eq . $sel}} selected{{end}}>{{.}}</option>{{end}}
</select></label><br>
<label>Max price <input type="number" step="0.5" name="max_price" value="{{printf "%.2f" .Filters.MaxPrice}}"></label><br>
<label>Dietary <input name="dietary" value="{{.Filters.Dietary}}" placeholder="vegan, gluten-free..."></label><br>
<button>Apply</button>
</form>
</div>
<div class="card">
<h3>Your Cart</h3>
{{if .CartItems}}
<ul>
{{range $i, $p := .CartItems}}
<li>{{$p.Name}} <span class="price">${{printf "%.2f" $p.Price}}</span>
<form class="inline" method="post" action="/cart/remove">
<input type="hidden" name="index" value="{{$i}}"><button>✕</button>
</form></li>
{{end}}
</ul>
<p>Total: <span class="price">${{printf "%.2f" .CartTotal}}</span></p>
<form method="post" action="/cart/checkout"><button>Checkout</button></form>
{{else}}<p class="muted">Cart is empty.</p>{{end}}
</div>
</div>

<div class="grid">
{{range .Products}}
<div class="card">
<div>{{.ImageURL}}</div>
<h3>{{.Name}}</h3>
<p>{{.Description}}</p>
<p><span class="price">${{printf "%.2f" .Price}}</span> · ⭐ {{printf "%.1f" .Rating}} · {{.Category}}</p>
<p class="muted">{{range .DietaryInfo}}{{.}} {{end}}</p>
{{if gt .StockQuantity 0}}
<form method="post" action="/cart/add">
<input type="hidden" name="product_id" value="{{.ID}}">
<button>Add to cart</button> <span class="muted">{{.StockQuantity}} in stock</span>
</form>
{{else}}<p class="muted">Out of stock</p>{{end}}
</div>
{{else}}
<p>No products match your filters.</p>
{{end}}
</div>
</body></html>`))

var assistantPage = template.Must(template.New("assistant").Parse(baseHead + `
<div class="sidebar">
<div class="card">
<h3>Try asking</h3>
<ul>
{{range .Questions}}
<li><form class="inline" method="post" action="/assistant">
<input type="hidden" name="message" value="{{.}}">
<button>{{.}}</button>
</form></li>
{{end}}
</ul>
<form method="post" action="/assistant/clear"><button>Clear chat</button></form>
</div>
</div>

<div class="chat">
{{range .Chat}}
{{if eq .Role "user"}}<p class="msg-user">🧑 {{.Content}}</p>
{{else}}<p class="msg-assistant">🤖 {{.Content}}</p>{{end}}
{{end}}
<form method="post" action="/assistant">
<input name="message" size="60" placeholder="Ask about our products..." autofocus>
<button>Send</button>
</form>
</div>
</body></html>`))
