package httpapi

import "net/http"

// NewMux returns the raw mux so main() can still attach /shutdown (needs srv+token).
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	hh := HealthHandler{}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	// Targets
	th := TargetsHandler{DB: d.DB, Hub: d.Hub}
	mux.HandleFunc("/targets", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  th.List,
		http.MethodPost: th.Create,
	}))
	mux.HandleFunc("/targets/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:    th.GetByPath,    // /targets/{id}
		http.MethodDelete: th.DeleteByPath, // /targets/{id}
	}))

	// Contacts
	ch := ContactsHandler{DB: d.DB}
	mux.HandleFunc("/contacts", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.List,
	}))
	mux.HandleFunc("/contacts/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.GetByPath, // /contacts/{id}
	}))

	// Discovery
	dh := DiscoverHandler{
		Status:       d.DiscoverStatus,
		Hub:          d.Hub,
		RunDiscovery: d.RunDiscovery,
		Resume:       d.Resume,
	}
	mux.HandleFunc("/discover/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: dh.Run,
	}))
	mux.HandleFunc("/discover/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: dh.GetStatus,
	}))
	mux.HandleFunc("/discover/resume", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: dh.PostResume,
	}))

	// Ingestion (manual trigger; the scheduler lane runs it on its own)
	ih := IngestHandler{RunIngest: d.RunIngest}
	mux.HandleFunc("/ingest/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ih.Run,
	}))

	// Connections
	cnh := &ConnectionsHandler{DB: d.DB, Sync: d.SyncConnections}
	mux.HandleFunc("/connections", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: cnh.List,
	}))
	mux.HandleFunc("/connections/sync", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: cnh.PostSync,
	}))

	// Compose
	cph := ComposeHandler{DB: d.DB, Personalizer: d.Personalizer, FetchProfile: d.FetchProfile}
	mux.HandleFunc("/compose/draft", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: cph.Draft,
	}))

	// Config
	cfh := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: cfh.Get,
		http.MethodPut: cfh.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: cfh.Path,
	}))

	// Secrets (use cfgVal, NOT a snapshot cfg)
	sh := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/api/secrets/identity", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetIdentityPassword,
	}))
	mux.HandleFunc("/api/secrets/imap", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetIMAPPassword,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	// Maintenance
	dbh := DBHandler{DB: d.DB}
	mux.HandleFunc("/db/checkpoint", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: dbh.Checkpoint,
	}))

	return mux
}
