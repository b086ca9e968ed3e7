package server

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sweetdelights/bakery-mcp/internal/catalog"
	"github.com/sweetdelights/bakery-mcp/internal/llm"
	"github.com/sweetdelights/bakery-mcp/pkg/types"
)

// Registry holds the server's tools in registration order.
type Registry struct {
	order []string
	tools map[string]types.BakeryTool
}

// Register adds a tool. A duplicate name replaces the earlier registration.
func (r *Registry) Register(t types.BakeryTool) {
	if _, exists := r.tools[t.GetName()]; !exists {
		r.order = append(r.order, t.GetName())
	}
	r.tools[t.GetName()] = t
}

// Get returns the tool with the given name, or nil.
func (r *Registry) Get(name string) types.BakeryTool {
	return r.tools[name]
}

// Names returns the registered tool names in order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Definitions returns the schema definition of every registered tool.
func (r *Registry) Definitions() []types.Tool {
	out := make([]types.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].GetDefinition())
	}
	return out
}

type popularArgs struct {
	Limit int `json:"limit,omitempty" jsonschema:"description=Number of popular products to return (default 3)"`
}

type searchArgs struct {
	Query string `json:"query" jsonschema:"required,description=The search term(s). E.g. 'chocolate cake' or 'vegan cookies'"`
}

type recommendArgs struct {
	Preferences catalog.Preferences `json:"preferences" jsonschema:"description=Category and dietary restriction preferences"`
}

type detailsArgs struct {
	ProductID int `json:"product_id" jsonschema:"required,description=The unique ID of the product"`
}

type chatArgs struct {
	UserInput   string            `json:"user_input" jsonschema:"required,description=The user's message to the assistant"`
	ChatHistory []llm.ChatMessage `json:"chat_history,omitempty" jsonschema:"description=Recent conversation turns"`
}

// NewRegistry builds the catalog tool set plus the assistant_chat tool.
func NewRegistry(cat *catalog.Catalog, lm *llm.Client, log zerolog.Logger) *Registry {
	r := &Registry{tools: make(map[string]types.BakeryTool)}

	r.Register(types.NewTool("get_popular_products",
		"Fetches a list of the most popular products. Use if the user asks for popular, best-selling, or top items.",
		func(ctx context.Context, args popularArgs) (interface{}, error) {
			return cat.Popular(args.Limit), nil
		}))

	r.Register(types.NewTool("search_products",
		"Searches for products based on a query string. Use if the user wants to find or search for specific items by name, description, category, or dietary information.",
		func(ctx context.Context, args searchArgs) (interface{}, error) {
			results := cat.Search(args.Query)
			if results == nil {
				results = []catalog.Product{}
			}
			return results, nil
		}))

	r.Register(types.NewTool("get_product_recommendations",
		"Recommends products based on user preferences like category or dietary restrictions. Use if the user asks for recommendations or suggestions.",
		func(ctx context.Context, args recommendArgs) (interface{}, error) {
			results := cat.Recommend(args.Preferences)
			if results == nil {
				results = []catalog.Product{}
			}
			return results, nil
		}))

	r.Register(types.NewTool("get_product_details",
		"Fetches detailed information for a specific product given its ID. Use if the user asks for details of a product ID.",
		func(ctx context.Context, args detailsArgs) (interface{}, error) {
			product, ok := cat.Details(args.ProductID)
			if !ok {
				// The original wire carries lookup misses in the payload,
				// not as an RPC error.
				return map[string]interface{}{"error": "Product not found", "id": args.ProductID}, nil
			}
			return product, nil
		}))

	assistant := &Assistant{
		catalog:  cat,
		llm:      lm,
		toolDefs: r.Definitions(),
		log:      log,
	}
	r.Register(types.NewTool("assistant_chat",
		"Answers a free-form user message, consulting the catalog tools when they fit.",
		func(ctx context.Context, args chatArgs) (interface{}, error) {
			if args.UserInput == "" {
				return nil, fmt.Errorf("user_input is required")
			}
			return assistant.Chat(ctx, args.UserInput, args.ChatHistory), nil
		}))

	return r
}
