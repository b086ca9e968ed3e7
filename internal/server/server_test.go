package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweetdelights/bakery-mcp/internal/catalog"
	"github.com/sweetdelights/bakery-mcp/internal/codec"
	"github.com/sweetdelights/bakery-mcp/internal/llm"
	"github.com/sweetdelights/bakery-mcp/pkg/methods"
	"github.com/sweetdelights/bakery-mcp/pkg/types"
)

// testConn drives a Server over in-memory pipes the way the web client
// drives the real subprocess.
type testConn struct {
	t      *testing.T
	stdin  io.WriteCloser
	stdout *bufio.Reader
	done   chan error
	nextID uint64
}

// offlineLLM points at a port nothing listens on; the assistant degrades.
func offlineLLM() *llm.Client {
	return llm.NewClient(llm.Config{URL: "http://127.0.0.1:1/api/generate", Timeout: time.Second}, zerolog.Nop())
}

func startServer(t *testing.T, lm *llm.Client) *testConn {
	t.Helper()

	stdinR, stdinW := io.Pipe()
	stdoutR, stdoutW := io.Pipe()
	srv := NewServer(stdinR, stdoutW, catalog.Default(), lm, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	stopped := make(chan struct{})
	go func() {
		done <- srv.Run(ctx)
		close(stopped)
	}()

	t.Cleanup(func() {
		cancel()
		stdinW.Close()
		select {
		case <-stopped:
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})

	return &testConn{t: t, stdin: stdinW, stdout: bufio.NewReader(stdoutR), done: done}
}

func (c *testConn) send(msg *types.Message) {
	c.t.Helper()
	data, err := codec.Encode(msg)
	if err != nil {
		c.t.Fatalf("encode request: %v", err)
	}
	if _, err := c.stdin.Write(data); err != nil {
		c.t.Fatalf("write request: %v", err)
	}
}

func (c *testConn) sendRaw(line string) {
	c.t.Helper()
	if _, err := io.WriteString(c.stdin, line+"\n"); err != nil {
		c.t.Fatalf("write raw line: %v", err)
	}
}

func (c *testConn) notify(method string) {
	c.send(&types.Message{JSONRPC: types.JSONRPCVersion, Method: method})
}

// request sends a request and reads lines until the matching response.
func (c *testConn) request(method string, params interface{}) *types.Message {
	c.t.Helper()
	c.nextID++
	id := types.ID{Num: c.nextID}
	msg := &types.Message{JSONRPC: types.JSONRPCVersion, ID: &id, Method: method}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			c.t.Fatalf("marshal params: %v", err)
		}
		raw := json.RawMessage(data)
		msg.Params = &raw
	}
	c.send(msg)

	for {
		line, err := c.stdout.ReadBytes('\n')
		if err != nil {
			c.t.Fatalf("read response: %v", err)
		}
		resp, err := codec.Decode(line)
		if err != nil {
			c.t.Fatalf("decode response %q: %v", line, err)
		}
		if resp.IsResponse() && resp.ID.Num == id.Num {
			return resp
		}
	}
}

func (c *testConn) callTool(name string, args map[string]interface{}) *types.Message {
	c.t.Helper()
	return c.request(methods.CallTool, types.CallToolRequest{Name: name, Arguments: args})
}

func unwrapTool(t *testing.T, resp *types.Message, v interface{}) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("tool call failed: %v", resp.Error)
	}
	var result types.CallToolResult
	if err := resp.UnmarshalResult(&result); err != nil {
		t.Fatalf("unmarshal tool result: %v", err)
	}
	if err := result.UnwrapPayload(v); err != nil {
		t.Fatalf("unwrap tool payload: %v", err)
	}
}

func TestInitialize(t *testing.T) {
	c := startServer(t, offlineLLM())

	resp := c.request(methods.Initialize, types.InitializeRequest{
		ProcessID:  1234,
		ClientInfo: types.Implementation{Name: "test", Version: "0"},
	})

	var result types.InitializeResult
	if err := resp.UnmarshalResult(&result); err != nil {
		t.Fatalf("unmarshal initialize result: %v", err)
	}
	if result.ServerInfo == nil || result.ServerInfo.Name != "bakeryd" {
		t.Errorf("serverInfo = %+v, want bakeryd", result.ServerInfo)
	}
	if result.Capabilities.Experimental["bakeryTools"] != true {
		t.Errorf("capabilities = %+v, want bakeryTools", result.Capabilities)
	}
	if result.Capabilities.Tools == nil || result.Capabilities.Resources == nil {
		t.Error("tools and resources capabilities must be advertised")
	}

	c.notify(methods.Initialized)
}

func TestListTools(t *testing.T) {
	c := startServer(t, offlineLLM())

	resp := c.request(methods.ListTools, nil)
	var result types.ListToolsResult
	if err := resp.UnmarshalResult(&result); err != nil {
		t.Fatalf("unmarshal tools list: %v", err)
	}

	want := []string{
		"get_popular_products",
		"search_products",
		"get_product_recommendations",
		"get_product_details",
		"assistant_chat",
	}
	if len(result.Tools) != len(want) {
		t.Fatalf("got %d tools, want %d", len(result.Tools), len(want))
	}
	for i, name := range want {
		if result.Tools[i].Name != name {
			t.Errorf("tool[%d] = %q, want %q", i, result.Tools[i].Name, name)
		}
	}
	for _, tool := range result.Tools {
		if tool.InputSchema.Type != "object" {
			t.Errorf("tool %s schema type = %q, want object", tool.Name, tool.InputSchema.Type)
		}
	}
}

func TestCallPopularProducts(t *testing.T) {
	c := startServer(t, offlineLLM())

	var products []catalog.Product
	unwrapTool(t, c.callTool("get_popular_products", map[string]interface{}{"limit": 2}), &products)
	if len(products) != 2 {
		t.Fatalf("got %d products, want 2", len(products))
	}
	if products[0].Name != "Artisan Sourdough Bread" {
		t.Errorf("top product = %q, want the highest rated", products[0].Name)
	}
}

func TestCallSearchProducts(t *testing.T) {
	c := startServer(t, offlineLLM())

	var products []catalog.Product
	unwrapTool(t, c.callTool("search_products", map[string]interface{}{"query": "chocolate"}), &products)
	if len(products) != 2 {
		t.Errorf("got %d products for chocolate, want 2", len(products))
	}

	// A miss yields an empty list, not null and not an error.
	unwrapTool(t, c.callTool("search_products", map[string]interface{}{"query": "zzz"}), &products)
	if products == nil || len(products) != 0 {
		t.Errorf("miss = %v, want empty list", products)
	}
}

func TestCallRecommendations(t *testing.T) {
	c := startServer(t, offlineLLM())

	var products []catalog.Product
	unwrapTool(t, c.callTool("get_product_recommendations", map[string]interface{}{
		"preferences": map[string]interface{}{"dietary_restrictions": []string{"vegan"}},
	}), &products)
	if len(products) != 2 {
		t.Fatalf("got %d vegan products, want 2", len(products))
	}
	for _, p := range products {
		if p.StockQuantity == 0 {
			t.Errorf("recommended out-of-stock product %q", p.Name)
		}
	}
}

func TestCallProductDetails(t *testing.T) {
	c := startServer(t, offlineLLM())

	var product catalog.Product
	unwrapTool(t, c.callTool("get_product_details", map[string]interface{}{"product_id": 1}), &product)
	if product.Name != "Classic Chocolate Cake" {
		t.Errorf("product = %q, want the chocolate cake", product.Name)
	}

	// A missing id is reported inside the payload, not as an RPC error.
	var miss map[string]interface{}
	unwrapTool(t, c.callTool("get_product_details", map[string]interface{}{"product_id": 999}), &miss)
	if miss["error"] != "Product not found" {
		t.Errorf("miss payload = %v, want a Product not found marker", miss)
	}
}

func TestCallUnknownTool(t *testing.T) {
	c := startServer(t, offlineLLM())

	resp := c.callTool("no_such_tool", nil)
	if resp.Error == nil || resp.Error.Code != types.MethodNotFound {
		t.Errorf("error = %+v, want MethodNotFound", resp.Error)
	}
}

func TestReadResources(t *testing.T) {
	c := startServer(t, offlineLLM())

	resp := c.request(methods.ReadResource, types.ReadResourceRequest{URI: "bakery://products/all"})
	var result types.ReadResourceResult
	if err := resp.UnmarshalResult(&result); err != nil {
		t.Fatalf("unmarshal resource result: %v", err)
	}
	var products []catalog.Product
	if err := result.UnwrapPayload(&products); err != nil {
		t.Fatalf("unwrap resource payload: %v", err)
	}
	if len(products) != 8 {
		t.Errorf("got %d products, want 8", len(products))
	}

	resp = c.request(methods.ReadResource, types.ReadResourceRequest{URI: "bakery://products/categories"})
	if err := resp.UnmarshalResult(&result); err != nil {
		t.Fatalf("unmarshal categories result: %v", err)
	}
	var cats []string
	if err := result.UnwrapPayload(&cats); err != nil {
		t.Fatalf("unwrap categories payload: %v", err)
	}
	if len(cats) != 7 {
		t.Errorf("got %d categories, want 7", len(cats))
	}

	resp = c.request(methods.ReadResource, types.ReadResourceRequest{URI: "bakery://nope"})
	if resp.Error == nil || resp.Error.Code != types.MethodNotFound {
		t.Errorf("unknown resource error = %+v, want MethodNotFound", resp.Error)
	}
}

func TestMalformedLineIsSkipped(t *testing.T) {
	c := startServer(t, offlineLLM())

	c.sendRaw("this is not json")
	c.sendRaw(`{"jsonrpc":"1.0","id":1,"method":"x"}`)

	// The server keeps serving after garbage.
	resp := c.request(methods.ListTools, nil)
	if resp.Error != nil {
		t.Errorf("request after garbage failed: %v", resp.Error)
	}
}

func TestUnknownMethod(t *testing.T) {
	c := startServer(t, offlineLLM())

	resp := c.request("bogus/method", nil)
	if resp.Error == nil || resp.Error.Code != types.MethodNotFound {
		t.Errorf("error = %+v, want MethodNotFound", resp.Error)
	}

	// An unknown notification gets no answer and does not kill the loop.
	c.notify("bogus/notification")
	if resp := c.request(methods.ListTools, nil); resp.Error != nil {
		t.Errorf("request after unknown notification failed: %v", resp.Error)
	}
}

func TestShutdownAndExit(t *testing.T) {
	c := startServer(t, offlineLLM())

	resp := c.request(methods.Shutdown, nil)
	if resp.Error != nil {
		t.Fatalf("shutdown error: %v", resp.Error)
	}

	c.notify(methods.Exit)
	select {
	case err := <-c.done:
		if err != nil {
			t.Errorf("Run after exit = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not terminate on exit notification")
	}
}

func TestAssistantChatOffline(t *testing.T) {
	c := startServer(t, offlineLLM())

	var reply ChatReply
	unwrapTool(t, c.callTool("assistant_chat", map[string]interface{}{"user_input": "hello"}), &reply)
	if !strings.Contains(reply.ResponseText, "AI brain") {
		t.Errorf("offline reply = %q, want the canned apology", reply.ResponseText)
	}
}

func TestAssistantChatRunsChosenTool(t *testing.T) {
	// A fake Ollama that always picks the popular-products tool.
	ollama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := json.Marshal(map[string]string{
			"response": `{"tool_name":"get_popular_products","arguments":{"limit":2}}`,
		})
		_, _ = w.Write(body)
	}))
	defer ollama.Close()

	c := startServer(t, llm.NewClient(llm.Config{URL: ollama.URL}, zerolog.Nop()))

	var reply ChatReply
	unwrapTool(t, c.callTool("assistant_chat", map[string]interface{}{"user_input": "what's popular?"}), &reply)
	if !strings.Contains(reply.ResponseText, "Artisan Sourdough Bread") {
		t.Errorf("reply = %q, want the top rated product listed", reply.ResponseText)
	}
	if !strings.Contains(reply.ResponseText, "most popular") {
		t.Errorf("reply = %q, want the popular-items prefix", reply.ResponseText)
	}
}

func TestAssistantChatRequiresInput(t *testing.T) {
	c := startServer(t, offlineLLM())

	resp := c.callTool("assistant_chat", map[string]interface{}{})
	if resp.Error == nil || resp.Error.Code != types.ServerError {
		t.Errorf("error = %+v, want ServerError for missing input", resp.Error)
	}
}
