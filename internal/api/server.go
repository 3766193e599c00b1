package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"strings"
	"time"

	"bookforge/internal/auth"
	"bookforge/internal/blob"
	"bookforge/internal/chat"
	"bookforge/internal/config"
	"bookforge/internal/handbook"
	"bookforge/internal/logger"
	"bookforge/internal/models"
	"bookforge/internal/storage"
	"bookforge/internal/util"
	"bookforge/internal/workflows"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
)

type Server struct {
	cfg          config.Config
	log          *logger.Logger
	userRepo     *storage.UserRepo
	documentRepo *storage.DocumentRepo
	handbookRepo *storage.HandbookRepo
	chat         *chat.Service
	tokens       *auth.TokenService
	blobs        blob.Store
	temporal     tclient.Client
}

func NewServer(cfg config.Config, log *logger.Logger, db *storage.DB, blobs blob.Store, chatSvc *chat.Service, tokens *auth.TokenService, temporal tclient.Client) *Server {
	return &Server{
		cfg:          cfg,
		log:          log.With("component", "api"),
		userRepo:     storage.NewUserRepo(db),
		documentRepo: storage.NewDocumentRepo(db),
		handbookRepo: storage.NewHandbookRepo(db),
		chat:         chatSvc,
		tokens:       tokens,
		blobs:        blobs,
		temporal:     temporal,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/auth/sign-up", s.handleSignUp)
	mux.HandleFunc("/auth/sign-in", s.handleSignIn)
	mux.HandleFunc("/documents", s.requireAuth(s.handleDocuments))
	mux.HandleFunc("/documents/", s.requireAuth(s.handleDocumentScoped))
	mux.HandleFunc("/chat", s.requireAuth(s.handleChat))
	mux.HandleFunc("/handbooks", s.requireAuth(s.handleHandbooks))
	mux.HandleFunc("/handbooks/", s.requireAuth(s.handleHandbookScoped))
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) requireAuth(next func(http.ResponseWriter, *http.Request, auth.Claims)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeErr(w, http.StatusUnauthorized, fmt.Errorf("missing bearer token"))
			return
		}
		claims, err := s.tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			writeErr(w, http.StatusUnauthorized, fmt.Errorf("invalid token: %w", err))
			return
		}
		next(w, r, claims)
	}
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	username, password, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	if _, err := s.userRepo.FindByUsername(r.Context(), username); err == nil {
		writeErr(w, http.StatusConflict, fmt.Errorf("username already taken"))
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	user, err := s.userRepo.Create(r.Context(), models.User{
		UserID:         uuid.NewString(),
		Username:       username,
		HashedPassword: hashed,
	})
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	token, err := s.tokens.Sign(user.UserID, user.Username)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	s.log.Info("user signed up", "user_id", user.UserID, "username", user.Username)
	writeJSON(w, http.StatusCreated, map[string]any{"token": token})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	username, password, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	user, err := s.userRepo.FindByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeErr(w, http.StatusUnauthorized, fmt.Errorf("invalid credentials"))
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if !auth.CheckPassword(user.HashedPassword, password) {
		writeErr(w, http.StatusUnauthorized, fmt.Errorf("invalid credentials"))
		return
	}

	token, err := s.tokens.Sign(user.UserID, user.Username)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token})
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (username, password string, ok bool) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return "", "", false
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("username and password are required"))
		return "", "", false
	}
	return req.Username, req.Password, true
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request, claims auth.Claims) {
	switch r.Method {
	case http.MethodGet:
		documents, err := s.documentRepo.FindAllByOwner(r.Context(), claims.UserID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"documents": documents})
	case http.MethodPost:
		s.handleUpload(w, r, claims)
	default:
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, claims auth.Claims) {
	// Leave some slack for the multipart framing around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeErr(w, http.StatusRequestEntityTooLarge, fmt.Errorf("pdf exceeds upload size limit"))
			return
		}
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}

	fh := formFile(r.MultipartForm, "file")
	if fh == nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("no pdf file uploaded"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		writeErr(w, http.StatusRequestEntityTooLarge, fmt.Errorf("pdf exceeds upload size limit"))
		return
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		writeErr(w, http.StatusBadRequest, util.ErrNotPDF)
		return
	}

	safeName := sanitizeFilename(fh.Filename)
	if safeName == "" {
		safeName = "document.pdf"
	}
	storagePath := fmt.Sprintf("%s/%d-%s", claims.UserID, time.Now().UnixMilli(), safeName)
	if err := s.blobs.Upload(r.Context(), storagePath, bytes.NewReader(data), "application/pdf"); err != nil {
		writeErr(w, http.StatusInternalServerError, fmt.Errorf("store pdf: %w", err))
		return
	}

	document, err := s.documentRepo.Create(r.Context(), models.Document{
		DocumentID:  uuid.NewString(),
		OwnerID:     claims.UserID,
		Filename:    safeName,
		StoragePath: storagePath,
		SizeBytes:   int64(len(data)),
		Status:      models.DocumentUploaded,
	})
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	_, err = s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
		ID:                    "ingest-" + document.DocumentID,
		TaskQueue:             s.cfg.TemporalTaskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
	}, workflows.DocumentIngestWorkflow, workflows.DocumentIngestInput{
		DocumentID:  document.DocumentID,
		OwnerID:     document.OwnerID,
		StoragePath: document.StoragePath,
		Filename:    document.Filename,
	})
	if err != nil {
		s.log.Error("start ingest workflow", "document_id", document.DocumentID, "error", err)
		if uErr := s.documentRepo.UpdateStatus(r.Context(), document.DocumentID, models.DocumentFailed, "failed to start ingestion"); uErr != nil {
			s.log.Error("mark document failed", "document_id", document.DocumentID, "error", uErr)
		}
		writeErr(w, http.StatusInternalServerError, fmt.Errorf("start ingestion: %w", err))
		return
	}

	s.log.Info("pdf uploaded", "document_id", document.DocumentID, "owner_id", claims.UserID, "size_bytes", document.SizeBytes)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "PDF uploaded successfully.",
		"document": document,
	})
}

func (s *Server) handleDocumentScoped(w http.ResponseWriter, r *http.Request, claims auth.Claims) {
	documentID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/documents/"), "/")
	if documentID == "" || strings.Contains(documentID, "/") {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}

	document, err := s.documentRepo.FindByIDForOwner(r.Context(), documentID, claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeErr(w, http.StatusNotFound, fmt.Errorf("document not found"))
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"document": document})
	case http.MethodDelete:
		if err := s.blobs.Remove(r.Context(), []string{document.StoragePath}); err != nil {
			writeErr(w, http.StatusInternalServerError, fmt.Errorf("remove pdf: %w", err))
			return
		}
		if err := s.documentRepo.Delete(r.Context(), document.DocumentID); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		s.log.Info("document deleted", "document_id", document.DocumentID, "owner_id", claims.UserID)
		writeJSON(w, http.StatusOK, map[string]any{"message": "Document deleted successfully."})
	default:
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, claims auth.Claims) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		Message     string   `json:"message"`
		DocumentIDs []string `json:"document_ids"`
		TopK        *int     `json:"top_k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("message is required"))
		return
	}

	allowed, err := s.ownedDocumentIDs(r, claims.UserID, req.DocumentIDs)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	resp, err := s.chat.Answer(r.Context(), claims.UserID, req.Message, allowed, requestedTopK(req.TopK))
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// requestedTopK distinguishes an omitted top_k, which takes the retrieval
// default, from an explicit non-positive one, which clamps to a single
// result. The retriever clamps the upper bound.
func requestedTopK(topK *int) int {
	if topK == nil {
		return 0
	}
	if *topK < 1 {
		return 1
	}
	return *topK
}

// ownedDocumentIDs keeps only the requested ids that belong to the caller,
// preserving request order. A nil request means no restriction.
func (s *Server) ownedDocumentIDs(r *http.Request, ownerID string, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return nil, nil
	}
	owned, err := s.documentRepo.FindByIDsForOwner(r.Context(), requested, ownerID)
	if err != nil {
		return nil, err
	}
	ownedSet := make(map[string]bool, len(owned))
	for _, d := range owned {
		ownedSet[d.DocumentID] = true
	}
	allowed := make([]string, 0, len(requested))
	for _, id := range requested {
		if ownedSet[id] {
			allowed = append(allowed, id)
		}
	}
	return allowed, nil
}

func (s *Server) handleHandbooks(w http.ResponseWriter, r *http.Request, claims auth.Claims) {
	switch r.Method {
	case http.MethodGet:
		handbooks, err := s.handbookRepo.FindAllByOwner(r.Context(), claims.UserID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"handbooks": handbooks})
	case http.MethodPost:
		s.handleStartHandbook(w, r, claims)
	default:
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

func (s *Server) handleStartHandbook(w http.ResponseWriter, r *http.Request, claims auth.Claims) {
	var req struct {
		Prompt      string   `json:"prompt"`
		Title       string   `json:"title"`
		DocumentIDs []string `json:"document_ids"`
		TargetWords *int     `json:"target_words"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("prompt is required"))
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = handbook.TitleFromPrompt(req.Prompt)
	}
	sourceIDs := req.DocumentIDs
	if sourceIDs == nil {
		sourceIDs = []string{}
	}

	hb, err := s.handbookRepo.Create(r.Context(), models.Handbook{
		HandbookID:        uuid.NewString(),
		OwnerID:           claims.UserID,
		Title:             title,
		Prompt:            req.Prompt,
		Status:            models.HandbookQueued,
		TargetWords:       handbook.ClampTargetWords(req.TargetWords),
		SourceDocumentIDs: sourceIDs,
	})
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	_, err = s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
		ID:                    "handbook-" + hb.HandbookID,
		TaskQueue:             s.cfg.TemporalTaskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
	}, workflows.HandbookBuildWorkflow, workflows.HandbookBuildInput{
		HandbookID:        hb.HandbookID,
		OwnerID:           hb.OwnerID,
		Title:             hb.Title,
		Prompt:            hb.Prompt,
		TargetWords:       hb.TargetWords,
		SourceDocumentIDs: hb.SourceDocumentIDs,
	})
	if err != nil {
		s.log.Error("start handbook workflow", "handbook_id", hb.HandbookID, "error", err)
		if fErr := s.handbookRepo.MarkFailed(r.Context(), hb.HandbookID, "failed to start generation"); fErr != nil {
			s.log.Error("mark handbook failed", "handbook_id", hb.HandbookID, "error", fErr)
		}
		writeErr(w, http.StatusInternalServerError, fmt.Errorf("start generation: %w", err))
		return
	}

	s.log.Info("handbook generation started", "handbook_id", hb.HandbookID, "owner_id", claims.UserID, "target_words", hb.TargetWords)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"message":  "Handbook generation started.",
		"handbook": hb,
	})
}

func (s *Server) handleHandbookScoped(w http.ResponseWriter, r *http.Request, claims auth.Claims) {
	handbookID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/handbooks/"), "/")
	if handbookID == "" || strings.Contains(handbookID, "/") {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}

	hb, err := s.handbookRepo.FindByIDForOwner(r.Context(), handbookID, claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeErr(w, http.StatusNotFound, fmt.Errorf("handbook not found"))
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"handbook": hb})
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
	repeatedUnderscores = regexp.MustCompile(`_+`)
)

func sanitizeFilename(filename string) string {
	out := unsafeFilenameChars.ReplaceAllString(filename, "_")
	out = repeatedUnderscores.ReplaceAllString(out, "_")
	return strings.Trim(out, "_")
}

func formFile(form *multipart.Form, field string) *multipart.FileHeader {
	if form == nil {
		return nil
	}
	if files := form.File[field]; len(files) > 0 {
		return files[0]
	}
	// Tolerate a single file under any field name.
	for _, files := range form.File {
		if len(files) > 0 {
			return files[0]
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "BF-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status >= 500:
		switch {
		case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
			return apiError{
				Code:    "BF-DB-5001",
				Message: "Database schema is not initialized. Run migrations and retry.",
			}
		case strings.Contains(raw, "connect"), strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{
				Code:    "BF-DB-5002",
				Message: "Database connection is unavailable. Check local services and retry.",
			}
		default:
			return apiError{
				Code:    "BF-API-5000",
				Message: "Internal server error. Please retry or check service logs.",
			}
		}
	case status == http.StatusBadRequest:
		code = "BF-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusUnauthorized:
		code = "BF-API-4010"
		msg = "Authentication required."
	case status == http.StatusNotFound:
		code = "BF-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusConflict:
		code = "BF-API-4009"
		msg = "Operation conflicts with current state."
	case status == http.StatusMethodNotAllowed:
		code = "BF-API-4005"
		msg = "This endpoint does not support the requested method."
	case status == http.StatusRequestEntityTooLarge:
		code = "BF-API-4013"
		msg = "PDF exceeds upload size limit."
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		switch {
		case strings.Contains(raw, "username and password are required"):
			msg = "Username and password are required."
		case strings.Contains(raw, "username already taken"):
			msg = "Username already taken."
		case strings.Contains(raw, "invalid credentials"):
			msg = "Invalid credentials."
		case strings.Contains(raw, "message is required"):
			msg = "message is required"
		case strings.Contains(raw, "prompt is required"):
			msg = "prompt is required"
		case strings.Contains(raw, "no pdf file uploaded"):
			msg = `No PDF file uploaded. Use multipart/form-data with field name "file".`
		case strings.Contains(raw, "not a valid pdf"):
			msg = "Uploaded file is not a valid PDF."
		case strings.Contains(raw, "invalid json"):
			msg = "Malformed JSON request body."
		case strings.Contains(raw, "document not found"):
			msg = "Document not found."
		case strings.Contains(raw, "handbook not found"):
			msg = "Handbook not found."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
