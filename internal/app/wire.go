package app

import (
	"net/http"

	"github.com/rs/zerolog"

	"moltspeak/internal/config"
	"moltspeak/internal/crypto"
	"moltspeak/internal/directory"
	"moltspeak/internal/domain"
	identitysvc "moltspeak/internal/services/identity"
	messagesvc "moltspeak/internal/services/message"
	sessionsvc "moltspeak/internal/services/session"
	"moltspeak/internal/store"
)

// Wire bundles all stores, services, and clients for the CLI.
type Wire struct {
	Settings  config.Config
	Identity  *store.IdentityFileStore
	Peers     *store.PeerFileStore
	IDs       domain.IdentityService
	Provider  domain.CryptoProvider
	Directory *directory.HTTP // nil when no directory URL is configured
	Resolver  Resolvers
	Sessions  *sessionsvc.Manager
	Messages  *messagesvc.Service
	HTTP      *http.Client
	Log       zerolog.Logger
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	s := cfg.Settings
	if err := s.Validate(); err != nil {
		return nil, err
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	// File-based stores
	identityStore := store.NewIdentityFileStore(s.Home)
	peerStore := store.NewPeerFileStore(s.Home)

	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: s.Directory.Timeout}
	}

	// Pinned peers first, then the directory when one is configured.
	resolver := Resolvers{peerStore}
	var dc *directory.HTTP
	if s.Directory.URL != "" {
		dc = directory.NewHTTP(s.Directory.URL, httpClient)
		resolver = append(resolver, dc)
	}

	provider := crypto.NewProvider(crypto.Options{
		InsecureTestCrypto: s.Crypto.InsecureTestCrypto,
		Logger:             log,
	})

	sessions := sessionsvc.NewManager(
		sessionsvc.WithMaxSessions(s.Sessions.Max),
		sessionsvc.WithDefaultTTL(s.Sessions.TTL),
		sessionsvc.WithLogger(log),
	)
	messages := messagesvc.New(provider, sessions,
		messagesvc.WithResolver(resolver),
		messagesvc.WithLogger(log),
		messagesvc.WithMaxAge(s.Messages.MaxAge),
		messagesvc.WithMaxSize(s.Messages.MaxSize),
	)

	return &Wire{
		Settings:  s,
		Identity:  identityStore,
		Peers:     peerStore,
		IDs:       identitysvc.New(identityStore),
		Provider:  provider,
		Directory: dc,
		Resolver:  resolver,
		Sessions:  sessions,
		Messages:  messages,
		HTTP:      httpClient,
		Log:       log,
	}, nil
}
