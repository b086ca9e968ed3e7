package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sweetdelights/bakery-mcp/internal/catalog"
	"github.com/sweetdelights/bakery-mcp/internal/llm"
	"github.com/sweetdelights/bakery-mcp/pkg/types"
)

// Assistant answers free-form chat by letting the model pick a catalog tool,
// running it, and rendering the outcome as text. When no tool fits (or the
// model is unreachable) it falls back to a direct generated reply.
type Assistant struct {
	catalog  *catalog.Catalog
	llm      *llm.Client
	toolDefs []types.Tool
	log      zerolog.Logger
}

// ChatReply is the assistant_chat tool payload.
type ChatReply struct {
	ResponseText string `json:"response_text"`
}

// Chat produces the assistant's reply for one user message.
func (a *Assistant) Chat(ctx context.Context, input string, history []llm.ChatMessage) ChatReply {
	decision := a.llm.ChooseTool(ctx, a.toolDefs, input, history)

	switch decision.ToolName {
	case "get_popular_products":
		items := a.catalog.Popular(intArg(decision.Arguments, "limit", 3))
		return ChatReply{ResponseText: formatItems(items, "Our most popular items are:\n")}

	case "search_products":
		query := stringArg(decision.Arguments, "query", input)
		items := a.catalog.Search(query)
		return ChatReply{ResponseText: formatItems(items, fmt.Sprintf("I found these items matching '%s':\n", query))}

	case "get_product_recommendations":
		var prefs catalog.Preferences
		if raw, err := json.Marshal(decision.Arguments["preferences"]); err == nil {
			_ = json.Unmarshal(raw, &prefs)
		}
		items := a.catalog.Recommend(prefs)
		return ChatReply{ResponseText: formatItems(items, "Based on your preferences, I recommend:\n")}

	case "get_product_details":
		id := intArg(decision.Arguments, "product_id", 0)
		product, ok := a.catalog.Details(id)
		if !ok {
			return ChatReply{ResponseText: fmt.Sprintf("Could not find details for product ID %d.", id)}
		}
		return ChatReply{ResponseText: formatItems([]catalog.Product{product}, fmt.Sprintf("Details for Product ID %d:\n", id))}

	default:
		a.log.Info().Str("tool", decision.ToolName).Str("reason", decision.Reason()).Msg("no tool chosen, falling back to direct reply")
		text, err := a.llm.Generate(ctx, input, history)
		if err != nil {
			a.log.Error().Err(err).Msg("fallback generation failed")
			return ChatReply{ResponseText: "Sorry, I'm having trouble connecting to my AI brain right now. Please try again later."}
		}
		return ChatReply{ResponseText: text}
	}
}

// formatItems renders up to three products as a numbered list.
func formatItems(items []catalog.Product, prefix string) string {
	if len(items) == 0 {
		return "I couldn't find any matching items right now."
	}

	var b strings.Builder
	b.WriteString(prefix)
	for i, item := range items {
		if i == 3 {
			break
		}
		fmt.Fprintf(&b, "%d. **%s** %s - $%.2f\n", i+1, item.Name, item.ImageURL, item.Price)
		desc := item.Description
		if len(desc) > 80 {
			desc = desc[:80] + "..."
		}
		fmt.Fprintf(&b, "   %s\n", desc)
		if item.Rating > 0 {
			fmt.Fprintf(&b, "   Rating: %s (%.1f/5)\n", strings.Repeat("⭐", int(item.Rating)), item.Rating)
		}
	}
	if len(items) > 3 {
		fmt.Fprintf(&b, "...and %d more items.", len(items)-3)
	}
	return b.String()
}

func intArg(args map[string]interface{}, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return fallback
}

func stringArg(args map[string]interface{}, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
