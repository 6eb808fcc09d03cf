package lists

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hoanghai1803/ilistas/internal/feeds"
	"github.com/hoanghai1803/ilistas/internal/models"
	"github.com/hoanghai1803/ilistas/internal/share"
	"github.com/hoanghai1803/ilistas/internal/storage"
)

var (
	ErrListNotFound    = errors.New("list not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrTitleRequired   = errors.New("title is required")
	ErrNameRequired    = errors.New("item name is required")
	ErrInvalidType     = errors.New("invalid content type: must be one of série, filme, anime")
	ErrSameList        = errors.New("source and destination lists are the same")
	ErrInvalidTarget   = errors.New("items cannot be moved into the watched list")
	ErrNotShareable    = errors.New("the watched list cannot be shared")
	ErrNothingToShare  = errors.New("list has no items to share")
	ErrImportFailed    = errors.New("share link could not be decoded")
	ErrFetcherDisabled = errors.New("fetching from the web is not configured")
	ErrInvalidURL      = errors.New("url must be a valid HTTP or HTTPS URL")
	ErrNoSnapshots     = errors.New("the storage backend does not keep snapshots")
)

// UnknownOriginTitle names the origin of a watched item whose list is gone.
const UnknownOriginTitle = "Lista desconhecida"

// Fetcher pulls items from outside sources. *feeds.Fetcher implements it.
type Fetcher interface {
	FetchAll(ctx context.Context, feedURLs []string, opts feeds.FetchOptions) (*feeds.FetchResult, error)
	ExtractPage(ctx context.Context, pageURL string) (*feeds.Page, error)
}

// Observer is notified of noteworthy list events. It is used for metrics.
type Observer interface {
	ItemWatched(listID string)
	ShareImported(outcome string)
}

// Import outcomes reported to the Observer.
const (
	ImportCreated  = "created"
	ImportExisting = "existing"
	ImportFailed   = "failed"
)

// ImportResult describes what Import did.
type ImportResult struct {
	List            models.List `json:"list"`
	AlreadyImported bool        `json:"already_imported"`
}

// FeedImportResult describes what ImportFeed did.
type FeedImportResult struct {
	List    models.List        `json:"list"`
	Added   int                `json:"added"`
	Skipped int                `json:"skipped"`
	Failed  []feeds.FailedFeed `json:"failed"`
}

// Service runs list operations against a collection store. Every mutation
// loads the whole collection, transforms it, and saves it back; mu keeps
// those cycles from interleaving inside one process.
type Service struct {
	mu       sync.Mutex
	store    storage.CollectionStore
	fetcher  Fetcher
	observer Observer
	newID    func() string
	feedOpts feeds.FetchOptions
}

// Option configures a Service.
type Option func(*Service)

// WithFetcher enables AddItemFromURL and ImportFeed.
func WithFetcher(f Fetcher, opts feeds.FetchOptions) Option {
	return func(s *Service) {
		s.fetcher = f
		s.feedOpts = opts
	}
}

// WithObserver registers an event observer.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithIDGenerator replaces the UUID generator, for deterministic tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// NewService creates a Service backed by store.
func NewService(store storage.CollectionStore, opts ...Option) *Service {
	s := &Service{
		store:    store,
		observer: nopObserver{},
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type nopObserver struct{}

func (nopObserver) ItemWatched(string)   {}
func (nopObserver) ShareImported(string) {}

// load returns the stored collection. A malformed record reads as empty.
func (s *Service) load(ctx context.Context) (models.Collection, error) {
	c, err := s.store.Load(ctx)
	if errors.Is(err, storage.ErrMalformed) {
		slog.Warn("stored collection is malformed, treating as empty", "error", err)
		return models.Collection{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading collection: %w", err)
	}
	return c, nil
}

// mutate runs fn over a copy of the stored collection and saves the result.
// It refuses to overwrite a malformed record.
func (s *Service) mutate(ctx context.Context, fn func(models.Collection) (models.Collection, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading collection: %w", err)
	}

	next, err := fn(c.Clone())
	if err != nil {
		return err
	}

	if err := s.store.Save(ctx, next); err != nil {
		return fmt.Errorf("saving collection: %w", err)
	}
	return nil
}

// Index returns every list for the list index. The watched list is only
// included once it holds at least one item.
func (s *Service) Index(ctx context.Context) ([]models.List, error) {
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	visible := WatchedListVisible(c)
	out := make([]models.List, 0, len(c))
	for _, l := range c {
		if l.IsWatched && !visible {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// Get returns the list with the given ID.
func (s *Service) Get(ctx context.Context, id string) (models.List, error) {
	c, err := s.load(ctx)
	if err != nil {
		return models.List{}, err
	}
	idx := c.Find(id)
	if idx < 0 {
		return models.List{}, ErrListNotFound
	}
	return c[idx], nil
}

// OriginTitles maps each origin list referenced by the watched list to its
// title, or UnknownOriginTitle when that list no longer exists.
func (s *Service) OriginTitles(ctx context.Context) (map[string]string, error) {
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string)
	idx := c.Find(models.WatchedListID)
	if idx < 0 {
		return titles, nil
	}
	for _, it := range c[idx].Items {
		if it.OriginListID == "" {
			continue
		}
		if o := c.Find(it.OriginListID); o >= 0 {
			titles[it.OriginListID] = c[o].Title
		} else {
			titles[it.OriginListID] = UnknownOriginTitle
		}
	}
	return titles, nil
}

// CreateList appends a new, empty list.
func (s *Service) CreateList(ctx context.Context, title, description string) (models.List, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.List{}, ErrTitleRequired
	}
	l := models.List{
		ID:          s.newID(),
		Title:       title,
		Description: strings.TrimSpace(description),
		Items:       []models.Item{},
	}
	err := s.mutate(ctx, func(c models.Collection) (models.Collection, error) {
		return append(c, l), nil
	})
	if err != nil {
		return models.List{}, err
	}
	slog.Info("list created", "list_id", l.ID, "title", l.Title)
	return l, nil
}

// DeleteList removes a list and every watched-list copy taken from it.
func (s *Service) DeleteList(ctx context.Context, id string) error {
	err := s.mutate(ctx, func(c models.Collection) (models.Collection, error) {
		idx := c.Find(id)
		if idx < 0 {
			return nil, ErrListNotFound
		}
		c = append(c[:idx], c[idx+1:]...)
		return RemoveOrigin(c, id), nil
	})
	if err != nil {
		return err
	}
	slog.Info("list deleted", "list_id", id)
	return nil
}

// validateInput trims and checks user-supplied item fields.
func validateInput(in models.ItemInput) (models.ItemInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.WatchOn = strings.TrimSpace(in.WatchOn)
	in.Note = strings.TrimSpace(in.Note)
	if in.Name == "" {
		return in, ErrNameRequired
	}
	if in.Type == "" {
		in.Type = models.DefaultContentType
	}
	if !in.Type.Valid() {
		return in, ErrInvalidType
	}
	return in, nil
}

// AddItem appends a new item to a list.
func (s *Service) AddItem(ctx context.Context, listID string, in models.ItemInput) (models.Item, error) {
	in, err := validateInput(in)
	if err != nil {
		return models.Item{}, err
	}
	item := models.Item{
		ID:      s.newID(),
		Name:    in.Name,
		WatchOn: in.WatchOn,
		Type:    in.Type,
		Note:    in.Note,
		Watched: in.Watched,
	}
	err = s.mutate(ctx, func(c models.Collection) (models.Collection, error) {
		idx := c.Find(listID)
		if idx < 0 {
			return nil, ErrListNotFound
		}
		c[idx].Items = append(c[idx].Items, item)
		return c, nil
	})
	if err != nil {
		return models.Item{}, err
	}
	return item, nil
}

// UpdateItem replaces the editable fields of an item. Origin references on
// watched-list items are preserved.
func (s *Service) UpdateItem(ctx context.Context, listID, itemID string, in models.ItemInput) (models.Item, error) {
	in, err := validateInput(in)
	if err != nil {
		return models.Item{}, err
	}
	var updated models.Item
	err = s.mutate(ctx, func(c models.Collection) (models.Collection, error) {
		idx := c.Find(listID)
		if idx < 0 {
			return nil, ErrListNotFound
		}
		i := c[idx].FindItem(itemID)
		if i < 0 {
			return nil, ErrItemNotFound
		}
		it := &c[idx].Items[i]
		it.Name = in.Name
		it.WatchOn = in.WatchOn
		it.Type = in.Type
		it.Note = in.Note
		it.Watched = in.Watched
		updated = *it
		return c, nil
	})
	if err != nil {
		return models.Item{}, err
	}
	return updated, nil
}

// DeleteItem removes an item from a list. Copies in the watched list are
// independent records and are left alone.
func (s *Service) DeleteItem(ctx context.Context, listID, itemID string) error {
	return s.mutate(ctx, func(c models.Collection) (models.Collection, error) {
		idx := c.Find(listID)
		if idx < 0 {
			return nil, ErrListNotFound
		}
		i := c[idx].FindItem(itemID)
		if i < 0 {
			return nil, ErrItemNotFound
		}
		c[idx].Items = append(c[idx].Items[:i], c[idx].Items[i+1:]...)
		return c, nil
	})
}

// ToggleWatched flips an item's watched flag.
//
// In the watched list only the flag changes. In an ordinary list, marking an
// item watched moves it: a copy goes to the watched list and the item leaves
// its list. Unmarking only clears the flag; watched copies are kept.
//
// The returned list is the list the item was in, after the change.
func (s *Service) ToggleWatched(ctx context.Context, listID, itemID string) (models.List, error) {
	var (
		result models.List
		copied bool
	)
	err := s.mutate(ctx, func(c models.Collection) (models.Collection, error) {
		idx := c.Find(listID)
		if idx < 0 {
			return nil, ErrListNotFound
		}
		i := c[idx].FindItem(itemID)
		if i < 0 {
			return nil, ErrItemNotFound
		}
		item := c[idx].Items[i]

		switch {
		case c[idx].IsWatched:
			c[idx].Items[i].Watched = !item.Watched
		case !item.Watched:
			item.Watched = true
			c[idx].Items = append(c[idx].Items[:i], c[idx].Items[i+1:]...)
			c = CopyToWatched(c, item, listID, s.newID())
			idx = c.Find(listID)
			copied = true
		default:
			c[idx].Items[i].Watched = false
			c = OnItemUnwatched(c, item, listID)
		}

		result = c[idx]
		return c, nil
	})
	if err != nil {
		return models.List{}, err
	}
	if copied {
		s.observer.ItemWatched(listID)
		slog.Info("item moved to watched list", "list_id", listID, "item_id", itemID)
	}
	return result, nil
}

// MoveTargets returns the lists an item in listID can be moved to: every
// list except itself and the watched list.
func (s *Service) MoveTargets(ctx context.Context, listID string) ([]models.List, error) {
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.List, 0, len(c))
	for _, l := range c {
		if l.ID == listID || l.IsWatched {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// MoveItem takes an item out of fromID and appends an equivalent record,
// with a new identifier, to toID.
func (s *Service) MoveItem(ctx context.Context, itemID, fromID, toID string) (models.Item, error) {
	if fromID == toID {
		return models.Item{}, ErrSameList
	}
	if toID == models.WatchedListID {
		return models.Item{}, ErrInvalidTarget
	}
	var moved models.Item
	err := s.mutate(ctx, func(c models.Collection) (models.Collection, error) {
		from := c.Find(fromID)
		to := c.Find(toID)
		if from < 0 || to < 0 {
			return nil, ErrListNotFound
		}
		i := c[from].FindItem(itemID)
		if i < 0 {
			return nil, ErrItemNotFound
		}

		moved = c[from].Items[i]
		moved.ID = s.newID()
		moved.OriginListID = ""
		moved.OriginItemID = ""

		c[from].Items = append(c[from].Items[:i], c[from].Items[i+1:]...)
		c[to].Items = append(c[to].Items, moved)
		return c, nil
	})
	if err != nil {
		return models.Item{}, err
	}
	slog.Info("item moved", "item_id", itemID, "from", fromID, "to", toID)
	return moved, nil
}

// Share gives the list a share ID (once; later calls reuse it), normalizes
// its items, and returns the updated list with its share URL under origin.
func (s *Service) Share(ctx context.Context, listID, origin string) (models.List, string, error) {
	var shared models.List
	err := s.mutate(ctx, func(c models.Collection) (models.Collection, error) {
		idx := c.Find(listID)
		if idx < 0 {
			return nil, ErrListNotFound
		}
		if c[idx].IsWatched {
			return nil, ErrNotShareable
		}
		if len(c[idx].Items) == 0 {
			return nil, ErrNothingToShare
		}
		c[idx].Items = share.NormalizeItems(c[idx].Items)
		if c[idx].ShareID == "" {
			id, err := share.NewShareID()
			if err != nil {
				return nil, err
			}
			c[idx].ShareID = id
		}
		shared = c[idx]
		return c, nil
	})
	if err != nil {
		return models.List{}, "", err
	}
	return shared, share.BuildURL(origin, shared), nil
}

// Import adds the list carried by a share token, unless a list with the same
// share ID was imported before, in which case that list is returned.
func (s *Service) Import(ctx context.Context, token, shareID string) (ImportResult, error) {
	payload, ok := share.Decode(token)
	if !ok || strings.TrimSpace(shareID) == "" {
		s.observer.ShareImported(ImportFailed)
		return ImportResult{}, ErrImportFailed
	}

	var res ImportResult
	err := s.mutate(ctx, func(c models.Collection) (models.Collection, error) {
		if idx := c.FindByShareID(shareID); idx >= 0 {
			res = ImportResult{List: c[idx], AlreadyImported: true}
			return c, nil
		}
		l := models.List{
			ID:          s.newID(),
			Title:       payload.Title,
			Description: payload.Description,
			Items:       uniqueItemIDs(payload.Items, s.newID),
			ShareID:     shareID,
		}
		res = ImportResult{List: l}
		return append(c, l), nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	if res.AlreadyImported {
		s.observer.ShareImported(ImportExisting)
		slog.Info("share link already imported", "share_id", shareID, "list_id", res.List.ID)
	} else {
		s.observer.ShareImported(ImportCreated)
		slog.Info("share link imported", "share_id", shareID, "list_id", res.List.ID, "origin_id", payload.OriginID)
	}
	return res, nil
}

// AddItemFromURL creates an item from a web page: the page title becomes the
// name and its site name (or host) the viewing location.
func (s *Service) AddItemFromURL(ctx context.Context, listID, rawURL string, typ models.ContentType) (models.Item, error) {
	if s.fetcher == nil {
		return models.Item{}, ErrFetcherDisabled
	}
	parsed, err := url.ParseRequestURI(strings.TrimSpace(rawURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return models.Item{}, ErrInvalidURL
	}
	if _, err := s.Get(ctx, listID); err != nil {
		return models.Item{}, err
	}

	page, err := s.fetcher.ExtractPage(ctx, parsed.String())
	if err != nil {
		return models.Item{}, fmt.Errorf("fetching page: %w", err)
	}

	name := page.Title
	if name == "" {
		name = parsed.String()
	}
	watchOn := page.SiteName
	if watchOn == "" {
		watchOn = parsed.Hostname()
	}
	return s.AddItem(ctx, listID, models.ItemInput{
		Name:    name,
		WatchOn: watchOn,
		Type:    typ,
		Note:    page.Excerpt,
	})
}

// ImportFeed appends one item per feed entry to a list. Entries whose name
// is already in the list are skipped.
func (s *Service) ImportFeed(ctx context.Context, listID string, feedURLs []string, typ models.ContentType) (FeedImportResult, error) {
	if s.fetcher == nil {
		return FeedImportResult{}, ErrFetcherDisabled
	}
	if typ == "" {
		typ = models.DefaultContentType
	}
	if !typ.Valid() {
		return FeedImportResult{}, ErrInvalidType
	}
	if len(feedURLs) == 0 {
		return FeedImportResult{}, ErrInvalidURL
	}
	for _, u := range feedURLs {
		parsed, err := url.ParseRequestURI(u)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return FeedImportResult{}, ErrInvalidURL
		}
	}
	if _, err := s.Get(ctx, listID); err != nil {
		return FeedImportResult{}, err
	}

	fetched, err := s.fetcher.FetchAll(ctx, feedURLs, s.feedOpts)
	if err != nil {
		return FeedImportResult{}, err
	}

	res := FeedImportResult{Failed: fetched.Failed}
	err = s.mutate(ctx, func(c models.Collection) (models.Collection, error) {
		idx := c.Find(listID)
		if idx < 0 {
			return nil, ErrListNotFound
		}
		have := make(map[string]bool, len(c[idx].Items))
		for _, it := range c[idx].Items {
			have[strings.ToLower(it.Name)] = true
		}
		for _, e := range fetched.Entries {
			key := strings.ToLower(e.Title)
			if have[key] {
				res.Skipped++
				continue
			}
			have[key] = true
			c[idx].Items = append(c[idx].Items, models.Item{
				ID:      s.newID(),
				Name:    e.Title,
				WatchOn: e.Feed,
				Type:    typ,
			})
			res.Added++
		}
		res.List = c[idx]
		return c, nil
	})
	if err != nil {
		return FeedImportResult{}, err
	}
	slog.Info("feed import finished", "list_id", listID, "added", res.Added, "skipped", res.Skipped, "failed", len(res.Failed))
	return res, nil
}

// Snapshots lists the most recent saved versions of the collection, newest
// first.
func (s *Service) Snapshots(ctx context.Context, limit int) ([]models.Snapshot, error) {
	snap, ok := s.store.(storage.Snapshotter)
	if !ok {
		return nil, ErrNoSnapshots
	}
	if limit <= 0 {
		limit = 20
	}
	return snap.Snapshots(ctx, limit)
}

// RestoreSnapshot replaces the collection with a saved version.
func (s *Service) RestoreSnapshot(ctx context.Context, id int64) (models.Collection, error) {
	snap, ok := s.store.(storage.Snapshotter)
	if !ok {
		return nil, ErrNoSnapshots
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := snap.RestoreSnapshot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("restoring snapshot %d: %w", id, err)
	}
	slog.Info("snapshot restored", "snapshot_id", id, "lists", len(c))
	return c, nil
}

// uniqueItemIDs gives a fresh ID to any item whose ID repeats an earlier one.
func uniqueItemIDs(items []models.Item, newID func() string) []models.Item {
	seen := make(map[string]bool, len(items))
	out := make([]models.Item, 0, len(items))
	for _, it := range items {
		if seen[it.ID] {
			it.ID = newID()
		}
		seen[it.ID] = true
		out = append(out, it)
	}
	return out
}
