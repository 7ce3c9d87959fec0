package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"vinohub/pkg/logging"
	"vinohub/pkg/models"
)

const defaultBaseURL = "http://localhost:8080"

type tokenData struct {
	Token string `json:"token"`
}

type authResponse struct {
	Token string `json:"token"`
}

type catalogListResponse struct {
	Total  int                  `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
	Items  []models.CatalogWine `json:"items"`
}

func main() {
	global := flag.NewFlagSet("vinohub", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "API base URL")
	tokenPath := global.String("token", defaultTokenPath(), "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("parse flags")
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	logging.Setup(logging.Config{Level: "info", Format: "console"})

	ctx := context.Background()
	cmd := args[0]
	sub := ""
	if len(args) > 1 {
		sub = args[1]
	}

	client := &http.Client{Timeout: 30 * time.Second}

	switch cmd {
	case "auth":
		handleAuth(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "catalog":
		handleCatalog(ctx, client, *baseURL, sub, args[2:])
	case "wines":
		handleWines(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "rate":
		handleRate(ctx, client, *baseURL, *tokenPath, args[1:])
	case "ratings":
		handleRatings(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "cellar":
		handleCellar(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "recommend":
		handleRecommend(ctx, client, *baseURL, *tokenPath, args[1:])
	case "score":
		handleScore(ctx, client, *baseURL, *tokenPath, args[1:])
	case "scan":
		handleScan(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "sync":
		handleSync(sub, args[2:])
	case "notify":
		handleNotify(*baseURL, sub, args[2:])
	case "export":
		handleExport(ctx, client, *baseURL, sub, args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "login":
		fs := flag.NewFlagSet("auth login", flag.ExitOnError)
		username := fs.String("username", "", "username")
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if (*username == "" && *email == "") || *password == "" {
			log.Fatal().Msg("username or email, and password are required")
		}

		payload := map[string]string{"username": *username, "email": *email, "password": *password}
		var resp authResponse
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/api/auth/login", "", payload, &resp); err != nil {
			log.Fatal().Err(err).Msg("login failed")
		}
		if err := saveToken(tokenPath, resp.Token); err != nil {
			log.Fatal().Err(err).Msg("save token")
		}
		fmt.Println("✅ logged in")
	case "register":
		fs := flag.NewFlagSet("auth register", flag.ExitOnError)
		username := fs.String("username", "", "username")
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *username == "" || *email == "" || *password == "" {
			log.Fatal().Msg("username, email, and password are required")
		}

		payload := map[string]string{"username": *username, "email": *email, "password": *password}
		var resp authResponse
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/api/auth/register", "", payload, &resp); err != nil {
			log.Fatal().Err(err).Msg("register failed")
		}
		if err := saveToken(tokenPath, resp.Token); err != nil {
			log.Fatal().Err(err).Msg("save token")
		}
		fmt.Println("✅ registered and logged in")
	case "logout":
		if err := clearToken(tokenPath); err != nil {
			log.Fatal().Err(err).Msg("logout failed")
		}
		fmt.Println("✅ logged out")
	default:
		log.Fatal().Msg("usage: vinohub auth <login|register|logout>")
	}
}

func handleCatalog(ctx context.Context, client *http.Client, baseURL, sub string, args []string) {
	switch sub {
	case "search":
		fs := flag.NewFlagSet("catalog search", flag.ExitOnError)
		query := fs.String("q", "", "search query")
		variety := fs.String("variety", "", "variety filter")
		country := fs.String("country", "", "country filter")
		wineType := fs.String("type", "", "type filter (red, white, ...)")
		limit := fs.Int("limit", 20, "page size")
		offset := fs.Int("offset", 0, "offset")
		_ = fs.Parse(args)

		u, err := url.Parse(baseURL + "/api/catalog")
		if err != nil {
			log.Fatal().Err(err).Msg("invalid base url")
		}
		qv := u.Query()
		if *query != "" {
			qv.Set("q", *query)
		}
		if *variety != "" {
			qv.Set("variety", *variety)
		}
		if *country != "" {
			qv.Set("country", *country)
		}
		if *wineType != "" {
			qv.Set("type", *wineType)
		}
		qv.Set("limit", strconv.Itoa(*limit))
		qv.Set("offset", strconv.Itoa(*offset))
		u.RawQuery = qv.Encode()

		var resp catalogListResponse
		if err := doJSON(ctx, client, http.MethodGet, u.String(), "", nil, &resp); err != nil {
			log.Fatal().Err(err).Msg("search failed")
		}
		printJSON(resp)
	case "show":
		fs := flag.NewFlagSet("catalog show", flag.ExitOnError)
		id := fs.String("id", "", "catalog wine id")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal().Msg("catalog wine id is required")
		}

		var resp models.CatalogWine
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/api/catalog/"+url.PathEscape(*id), "", nil, &resp); err != nil {
			log.Fatal().Err(err).Msg("show failed")
		}
		printJSON(resp)
	case "facets":
		fs := flag.NewFlagSet("catalog facets", flag.ExitOnError)
		field := fs.String("field", "variety", "facet field (variety, country, type)")
		_ = fs.Parse(args)

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/api/catalog/facets?field="+url.QueryEscape(*field), "", nil, &resp); err != nil {
			log.Fatal().Err(err).Msg("facets failed")
		}
		printJSON(resp)
	default:
		log.Fatal().Msg("usage: vinohub catalog <search|show|facets>")
	}
}

func handleWines(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	token := mustToken(tokenPath)
	switch sub {
	case "add":
		fs := flag.NewFlagSet("wines add", flag.ExitOnError)
		name := fs.String("name", "", "wine name")
		winery := fs.String("winery", "", "winery")
		variety := fs.String("variety", "", "grape variety")
		region := fs.String("region", "", "region")
		country := fs.String("country", "", "country")
		vintage := fs.Int("vintage", 0, "vintage year")
		price := fs.Float64("price", 0, "price")
		wineType := fs.String("type", "", "red, white, rosé, sparkling, dessert, fortified")
		pairings := fs.String("pairings", "", "comma-separated food pairings")
		_ = fs.Parse(args)
		if *name == "" {
			log.Fatal().Msg("name is required")
		}

		payload := map[string]any{
			"name":    *name,
			"winery":  *winery,
			"variety": *variety,
			"region":  *region,
			"country": *country,
			"type":    *wineType,
		}
		if *vintage > 0 {
			payload["vintage"] = *vintage
		}
		if *price > 0 {
			payload["price"] = *price
		}
		if *pairings != "" {
			payload["pairings"] = splitList(*pairings)
		}
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/api/wines", token, payload, &resp); err != nil {
			log.Fatal().Err(err).Msg("add failed")
		}
		printJSON(resp)
	case "list":
		fs := flag.NewFlagSet("wines list", flag.ExitOnError)
		query := fs.String("q", "", "search query")
		limit := fs.Int("limit", 20, "page size")
		offset := fs.Int("offset", 0, "offset")
		_ = fs.Parse(args)

		u, err := url.Parse(baseURL + "/api/wines")
		if err != nil {
			log.Fatal().Err(err).Msg("invalid base url")
		}
		qv := u.Query()
		if *query != "" {
			qv.Set("q", *query)
		}
		qv.Set("limit", strconv.Itoa(*limit))
		qv.Set("offset", strconv.Itoa(*offset))
		u.RawQuery = qv.Encode()

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, u.String(), token, nil, &resp); err != nil {
			log.Fatal().Err(err).Msg("list failed")
		}
		printJSON(resp)
	case "show":
		fs := flag.NewFlagSet("wines show", flag.ExitOnError)
		id := fs.String("id", "", "wine id")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal().Msg("wine id is required")
		}

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/api/wines/"+url.PathEscape(*id), token, nil, &resp); err != nil {
			log.Fatal().Err(err).Msg("show failed")
		}
		printJSON(resp)
	case "rm":
		fs := flag.NewFlagSet("wines rm", flag.ExitOnError)
		id := fs.String("id", "", "wine id")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal().Msg("wine id is required")
		}

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodDelete, baseURL+"/api/wines/"+url.PathEscape(*id), token, nil, &resp); err != nil {
			log.Fatal().Err(err).Msg("remove failed")
		}
		printJSON(resp)
	default:
		log.Fatal().Msg("usage: vinohub wines <add|list|show|rm>")
	}
}

func handleRate(ctx context.Context, client *http.Client, baseURL, tokenPath string, args []string) {
	token := mustToken(tokenPath)

	fs := flag.NewFlagSet("rate", flag.ExitOnError)
	wineID := fs.String("wine-id", "", "journal wine id")
	catalogID := fs.String("catalog-id", "", "catalog wine id")
	name := fs.String("name", "", "wine name (when not in the catalog)")
	winery := fs.String("winery", "", "winery (with -name)")
	vintage := fs.Int("vintage", 0, "vintage year")
	rating := fs.Float64("rating", 0, "rating, 0-5 in 0.1 steps")
	note := fs.String("note", "", "tasting note")
	_ = fs.Parse(args)

	if *wineID == "" && *catalogID == "" && *name == "" {
		log.Fatal().Msg("one of -wine-id, -catalog-id, or -name is required")
	}
	if *rating <= 0 {
		log.Fatal().Msg("-rating is required")
	}

	payload := map[string]any{
		"rating": *rating,
		"note":   *note,
	}
	switch {
	case *wineID != "":
		payload["wine_id"] = *wineID
	case *catalogID != "":
		payload["catalog_id"] = *catalogID
	default:
		wine := map[string]any{"name": *name, "winery": *winery}
		if *vintage > 0 {
			wine["vintage"] = *vintage
		}
		payload["wine"] = wine
	}
	if *vintage > 0 {
		payload["vintage"] = *vintage
	}

	var resp map[string]any
	if err := doJSON(ctx, client, http.MethodPost, baseURL+"/api/ratings", token, payload, &resp); err != nil {
		log.Fatal().Err(err).Msg("rate failed")
	}
	printJSON(resp)
}

func handleRatings(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	token := mustToken(tokenPath)
	switch sub {
	case "list":
		fs := flag.NewFlagSet("ratings list", flag.ExitOnError)
		wineID := fs.String("wine-id", "", "only ratings for this wine")
		limit := fs.Int("limit", 20, "page size")
		offset := fs.Int("offset", 0, "offset")
		_ = fs.Parse(args)

		endpoint := baseURL + "/api/ratings"
		if *wineID != "" {
			endpoint = baseURL + "/api/wines/" + url.PathEscape(*wineID) + "/ratings"
		}
		u, err := url.Parse(endpoint)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid base url")
		}
		qv := u.Query()
		qv.Set("limit", strconv.Itoa(*limit))
		qv.Set("offset", strconv.Itoa(*offset))
		u.RawQuery = qv.Encode()

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, u.String(), token, nil, &resp); err != nil {
			log.Fatal().Err(err).Msg("list failed")
		}
		printJSON(resp)
	case "rm":
		fs := flag.NewFlagSet("ratings rm", flag.ExitOnError)
		id := fs.Int64("id", 0, "rating id")
		_ = fs.Parse(args)
		if *id <= 0 {
			log.Fatal().Msg("rating id is required")
		}

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodDelete, baseURL+"/api/ratings/"+strconv.FormatInt(*id, 10), token, nil, &resp); err != nil {
			log.Fatal().Err(err).Msg("remove failed")
		}
		printJSON(resp)
	default:
		log.Fatal().Msg("usage: vinohub ratings <list|rm>")
	}
}

func handleCellar(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	token := mustToken(tokenPath)
	switch sub {
	case "set":
		fs := flag.NewFlagSet("cellar set", flag.ExitOnError)
		wineID := fs.String("wine-id", "", "journal wine id")
		status := fs.String("status", "cellar", "cellar, wishlist, or tried")
		quantity := fs.Int("quantity", 1, "bottle count")
		_ = fs.Parse(args)
		if *wineID == "" {
			log.Fatal().Msg("wine-id is required")
		}

		payload := map[string]any{
			"wine_id":  *wineID,
			"status":   *status,
			"quantity": *quantity,
		}
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodPut, baseURL+"/api/cellar", token, payload, &resp); err != nil {
			log.Fatal().Err(err).Msg("set failed")
		}
		printJSON(resp)
	case "list":
		fs := flag.NewFlagSet("cellar list", flag.ExitOnError)
		status := fs.String("status", "", "status filter")
		limit := fs.Int("limit", 20, "page size")
		offset := fs.Int("offset", 0, "offset")
		_ = fs.Parse(args)

		u, err := url.Parse(baseURL + "/api/cellar")
		if err != nil {
			log.Fatal().Err(err).Msg("invalid base url")
		}
		qv := u.Query()
		if *status != "" {
			qv.Set("status", *status)
		}
		qv.Set("limit", strconv.Itoa(*limit))
		qv.Set("offset", strconv.Itoa(*offset))
		u.RawQuery = qv.Encode()

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, u.String(), token, nil, &resp); err != nil {
			log.Fatal().Err(err).Msg("list failed")
		}
		printJSON(resp)
	case "rm":
		fs := flag.NewFlagSet("cellar rm", flag.ExitOnError)
		wineID := fs.String("wine-id", "", "journal wine id")
		_ = fs.Parse(args)
		if *wineID == "" {
			log.Fatal().Msg("wine-id is required")
		}

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodDelete, baseURL+"/api/cellar/"+url.PathEscape(*wineID), token, nil, &resp); err != nil {
			log.Fatal().Err(err).Msg("remove failed")
		}
		printJSON(resp)
	default:
		log.Fatal().Msg("usage: vinohub cellar <set|list|rm>")
	}
}

func handleRecommend(ctx context.Context, client *http.Client, baseURL, tokenPath string, args []string) {
	token := mustToken(tokenPath)

	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	query := fs.String("q", "", "narrow candidates with a search query")
	limit := fs.Int("limit", 20, "how many recommendations")
	_ = fs.Parse(args)

	u, err := url.Parse(baseURL + "/api/recommendations")
	if err != nil {
		log.Fatal().Err(err).Msg("invalid base url")
	}
	qv := u.Query()
	if *query != "" {
		qv.Set("q", *query)
	}
	qv.Set("limit", strconv.Itoa(*limit))
	u.RawQuery = qv.Encode()

	var resp map[string]any
	if err := doJSON(ctx, client, http.MethodGet, u.String(), token, nil, &resp); err != nil {
		log.Fatal().Err(err).Msg("recommend failed")
	}
	printJSON(resp)
}

func handleScore(ctx context.Context, client *http.Client, baseURL, tokenPath string, args []string) {
	token := mustToken(tokenPath)

	fs := flag.NewFlagSet("score", flag.ExitOnError)
	id := fs.String("id", "", "catalog wine id")
	_ = fs.Parse(args)
	if *id == "" {
		log.Fatal().Msg("catalog wine id is required")
	}

	var resp map[string]any
	if err := doJSON(ctx, client, http.MethodGet, baseURL+"/api/catalog/"+url.PathEscape(*id)+"/score", token, nil, &resp); err != nil {
		log.Fatal().Err(err).Msg("score failed")
	}
	printJSON(resp)
}

func handleScan(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "image":
		token := mustToken(tokenPath)
		fs := flag.NewFlagSet("scan image", flag.ExitOnError)
		path := fs.String("file", "", "menu photo (jpeg, png, webp)")
		_ = fs.Parse(args)
		if *path == "" {
			log.Fatal().Msg("file is required")
		}

		var resp map[string]any
		if err := uploadScan(ctx, client, baseURL+"/api/scans", token, *path, &resp); err != nil {
			log.Fatal().Err(err).Msg("scan failed")
		}
		printJSON(resp)
	case "lines":
		token := mustToken(tokenPath)
		fs := flag.NewFlagSet("scan lines", flag.ExitOnError)
		path := fs.String("file", "", "text file with one menu line per row, - for stdin")
		_ = fs.Parse(args)
		if *path == "" {
			log.Fatal().Msg("file is required")
		}

		lines, err := readLines(*path)
		if err != nil {
			log.Fatal().Err(err).Msg("read lines failed")
		}

		payload := map[string]any{"lines": lines}
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/api/scans", token, payload, &resp); err != nil {
			log.Fatal().Err(err).Msg("scan failed")
		}
		printJSON(resp)
	case "list":
		token := mustToken(tokenPath)
		fs := flag.NewFlagSet("scan list", flag.ExitOnError)
		limit := fs.Int("limit", 20, "page size")
		offset := fs.Int("offset", 0, "offset")
		_ = fs.Parse(args)

		u, err := url.Parse(baseURL + "/api/scans")
		if err != nil {
			log.Fatal().Err(err).Msg("invalid base url")
		}
		qv := u.Query()
		qv.Set("limit", strconv.Itoa(*limit))
		qv.Set("offset", strconv.Itoa(*offset))
		u.RawQuery = qv.Encode()

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, u.String(), token, nil, &resp); err != nil {
			log.Fatal().Err(err).Msg("list failed")
		}
		printJSON(resp)
	case "show":
		token := mustToken(tokenPath)
		fs := flag.NewFlagSet("scan show", flag.ExitOnError)
		id := fs.String("id", "", "scan id")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal().Msg("scan id is required")
		}

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/api/scans/"+url.PathEscape(*id), token, nil, &resp); err != nil {
			log.Fatal().Err(err).Msg("show failed")
		}
		printJSON(resp)
	case "watch":
		fs := flag.NewFlagSet("scan watch", flag.ExitOnError)
		id := fs.String("id", "", "scan id")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal().Msg("scan id is required")
		}

		endpoint, err := websocketURL(baseURL, "/ws/scanfeed/"+url.PathEscape(*id))
		if err != nil {
			log.Fatal().Err(err).Msg("ws url")
		}
		if err := runWebSocket(endpoint); err != nil {
			log.Fatal().Err(err).Msg("watch failed")
		}
	default:
		log.Fatal().Msg("usage: vinohub scan <image|lines|list|show|watch>")
	}
}

func handleSync(sub string, args []string) {
	switch sub {
	case "listen":
		fs := flag.NewFlagSet("sync listen", flag.ExitOnError)
		addr := fs.String("addr", "127.0.0.1:7070", "TCP sync server address")
		pretty := fs.Bool("pretty", true, "pretty print JSON events")
		_ = fs.Parse(args)
		for {
			if err := runSyncTCP(*addr, *pretty); err != nil {
				log.Warn().Err(err).Msg("sync disconnected")
			}
			time.Sleep(1 * time.Second)
		}
	default:
		log.Fatal().Msg("usage: vinohub sync listen")
	}
}

func handleNotify(baseURL, sub string, args []string) {
	switch sub {
	case "subscribe":
		fs := flag.NewFlagSet("notify subscribe", flag.ExitOnError)
		wsURL := fs.String("ws", "", "WebSocket URL (defaults to /ws/sync on API host)")
		_ = fs.Parse(args)

		endpoint := *wsURL
		if endpoint == "" {
			var err error
			endpoint, err = websocketURL(baseURL, "/ws/sync")
			if err != nil {
				log.Fatal().Err(err).Msg("ws url")
			}
		}
		if err := runWebSocket(endpoint); err != nil {
			log.Fatal().Err(err).Msg("subscribe failed")
		}
	default:
		log.Fatal().Msg("usage: vinohub notify subscribe")
	}
}

func handleExport(ctx context.Context, client *http.Client, baseURL, sub string, args []string) {
	switch sub {
	case "json":
		fs := flag.NewFlagSet("export json", flag.ExitOnError)
		out := fs.String("out", "data/catalog.json", "output JSON path")
		limit := fs.Int("limit", 200, "max wines to export")
		_ = fs.Parse(args)

		items, err := fetchCatalog(ctx, client, baseURL, *limit)
		if err != nil {
			log.Fatal().Err(err).Msg("export json failed")
		}
		if err := writeJSON(*out, items); err != nil {
			log.Fatal().Err(err).Msg("write json failed")
		}
		fmt.Printf("✅ exported %d wines to %s\n", len(items), *out)
	case "csv":
		fs := flag.NewFlagSet("export csv", flag.ExitOnError)
		out := fs.String("out", "data/catalog.csv", "output CSV path")
		limit := fs.Int("limit", 200, "max wines to export")
		_ = fs.Parse(args)

		items, err := fetchCatalog(ctx, client, baseURL, *limit)
		if err != nil {
			log.Fatal().Err(err).Msg("export csv failed")
		}
		if err := writeCSV(*out, items); err != nil {
			log.Fatal().Err(err).Msg("write csv failed")
		}
		fmt.Printf("✅ exported %d wines to %s\n", len(items), *out)
	default:
		log.Fatal().Msg("usage: vinohub export <json|csv>")
	}
}

func runSyncTCP(addr string, pretty bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Info().Str("addr", addr).Msg("sync connected")
	reader := bufio.NewScanner(conn)
	for reader.Scan() {
		line := reader.Bytes()
		if !pretty {
			fmt.Println(string(line))
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(line, &obj); err != nil {
			fmt.Println(string(line))
			continue
		}
		b, _ := json.MarshalIndent(obj, "", "  ")
		fmt.Println(string(b))
	}
	if err := reader.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}

func runWebSocket(wsURL string) error {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Info().Str("url", wsURL).Msg("ws connected")
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		fmt.Println(string(msg))
	}
}

// uploadScan posts the photo as a multipart form, the way a phone app would.
func uploadScan(ctx context.Context, client *http.Client, endpoint, token, path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var buf strings.Builder
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(buf.String()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("POST %s failed: %s", endpoint, strings.TrimSpace(string(data)))
	}
	return json.Unmarshal(data, out)
}

func readLines(path string) ([]string, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, sc.Err()
}

func fetchCatalog(ctx context.Context, client *http.Client, baseURL string, limit int) ([]models.CatalogWine, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be > 0")
	}

	var out []models.CatalogWine
	offset := 0
	for len(out) < limit {
		pageSize := 50
		if remaining := limit - len(out); remaining < pageSize {
			pageSize = remaining
		}
		u, err := url.Parse(baseURL + "/api/catalog")
		if err != nil {
			return nil, err
		}
		qv := u.Query()
		qv.Set("limit", strconv.Itoa(pageSize))
		qv.Set("offset", strconv.Itoa(offset))
		u.RawQuery = qv.Encode()

		var resp catalogListResponse
		if err := doJSON(ctx, client, http.MethodGet, u.String(), "", nil, &resp); err != nil {
			return nil, err
		}
		if len(resp.Items) == 0 {
			break
		}
		out = append(out, resp.Items...)
		offset += len(resp.Items)
		if offset >= resp.Total {
			break
		}
	}

	return out, nil
}

func writeJSON(path string, items []models.CatalogWine) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func writeCSV(path string, items []models.CatalogWine) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{
		"id", "name", "winery", "variety", "region", "country", "vintage", "average", "price", "type", "pairings",
	}); err != nil {
		return err
	}
	for _, item := range items {
		vintage := ""
		if item.Vintage != nil {
			vintage = strconv.Itoa(*item.Vintage)
		}
		rating := ""
		if item.Rating != nil {
			rating = strconv.FormatFloat(*item.Rating, 'f', -1, 64)
		}
		price := ""
		if item.Price != nil {
			price = strconv.FormatFloat(*item.Price, 'f', -1, 64)
		}
		if err := writer.Write([]string{
			item.ID,
			item.Name,
			item.Winery,
			item.Variety,
			item.Region,
			item.Country,
			vintage,
			rating,
			price,
			item.Type,
			strings.Join(item.Pairings, "; "),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func doJSON(ctx context.Context, client *http.Client, method, endpoint, token string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed: %s", method, endpoint, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return err
	}
	return nil
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("json")
	}
	fmt.Println(string(b))
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.vinohub-token.json"
	}
	return filepath.Join(home, ".vinohub", "token.json")
}

func saveToken(path, token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tokenData{Token: token}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func readToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var td tokenData
	if err := json.Unmarshal(data, &td); err != nil {
		return "", err
	}
	return strings.TrimSpace(td.Token), nil
}

func mustToken(path string) string {
	token, err := readToken(path)
	if err != nil {
		log.Fatal().Err(err).Msg("token not found, please login")
	}
	if token == "" {
		log.Fatal().Msg("token empty, please login")
	}
	return token
}

func clearToken(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   path,
	}).String(), nil
}

func printUsage() {
	fmt.Println("vinohub <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth login|register|logout")
	fmt.Println("  catalog search|show|facets")
	fmt.Println("  wines add|list|show|rm")
	fmt.Println("  rate -wine-id|-catalog-id|-name ... -rating N")
	fmt.Println("  ratings list|rm")
	fmt.Println("  cellar set|list|rm")
	fmt.Println("  recommend [-q query] [-limit N]")
	fmt.Println("  score -id <catalog id>")
	fmt.Println("  scan image|lines|list|show|watch")
	fmt.Println("  sync listen")
	fmt.Println("  notify subscribe")
	fmt.Println("  export json|csv")
}
