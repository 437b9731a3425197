package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"shelf-service/internal/catalog"
	"shelf-service/internal/model"
	"shelf-service/internal/repository"
)

var errUniqueViolation = &pgconn.PgError{Code: "23505"}

type ratingKey struct {
	user uuid.UUID
	book string
}

type listEntry struct {
	id      int64
	bookID  string
	addedAt time.Time
}

// memStore backs every fake repository so cross-repository effects can be observed.
type memStore struct {
	mu      sync.Mutex
	seq     int64
	users   map[uuid.UUID]*model.User
	bios    map[uuid.UUID]string
	genres  map[uuid.UUID][]string
	books   map[string]*model.Book
	lists   map[int64]*model.BookList
	entries map[int64][]listEntry
	ratings map[ratingKey]*model.Rating
	posts   map[int64]*model.Post
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[uuid.UUID]*model.User{},
		bios:    map[uuid.UUID]string{},
		genres:  map[uuid.UUID][]string{},
		books:   map[string]*model.Book{},
		lists:   map[int64]*model.BookList{},
		entries: map[int64][]listEntry{},
		ratings: map[ratingKey]*model.Rating{},
		posts:   map[int64]*model.Post{},
	}
}

func (m *memStore) next() int64 {
	m.seq++
	return m.seq
}

func (m *memStore) addBook(b model.Book) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := b
	m.books[b.ID] = &copied
}

func (m *memStore) entryCount(listID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries[listID])
}

// users

type fakeUsers struct {
	*memStore
	createErr error
}

func (f *fakeUsers) Create(_ context.Context, user *model.User, genres []string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, u := range f.users {
		if u.Email == user.Email || u.Username == user.Username {
			return nil, errUniqueViolation
		}
	}

	user.ID = uuid.New()
	user.ProfileID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	f.users[user.ID] = &copied
	f.genres[user.ID] = append([]string(nil), genres...)
	for _, name := range model.DefaultListNames {
		id := f.next()
		f.lists[id] = &model.BookList{ID: id, UserID: user.ID, Name: name, CreatedAt: time.Now()}
	}
	return user, nil
}

func (f *fakeUsers) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

// profiles

type fakeProfiles struct{ *memStore }

func (f *fakeProfiles) FindDetails(_ context.Context, userID uuid.UUID) (*model.UserDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	genres := append([]string{}, f.genres[userID]...)
	sort.Strings(genres)
	return &model.UserDetails{User: *u, Bio: f.bios[userID], Genres: genres}, nil
}

func (f *fakeProfiles) FindGenres(_ context.Context, userID uuid.UUID) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.genres[userID]...), nil
}

func (f *fakeProfiles) Update(_ context.Context, userID uuid.UUID, bio *string, genres []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if bio != nil {
		f.bios[userID] = *bio
	}
	if genres != nil {
		f.genres[userID] = append([]string{}, genres...)
	}
	return nil
}

// books

type fakeBooks struct{ *memStore }

func (f *fakeBooks) Upsert(_ context.Context, u model.BookUpsert) (*model.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[u.ID]
	if !ok {
		b = &model.Book{ID: u.ID, Title: model.StubBookTitle, Categories: pq.StringArray{}, CreatedAt: time.Now()}
		f.books[u.ID] = b
	}
	if u.Title != nil {
		b.Title = *u.Title
	}
	if u.Authors != nil {
		b.Authors = *u.Authors
	}
	if u.Image != nil || u.ClearImage {
		b.Image = u.Image
	}
	if u.Description != nil || u.ClearDescription {
		b.Description = u.Description
	}
	if u.HasCategories() {
		b.Categories = append(pq.StringArray{}, u.Categories...)
	}
	if u.Rating != nil || u.ClearRating {
		b.ExternalRating = u.Rating
	}
	b.UpdatedAt = time.Now()
	copied := *b
	return &copied, nil
}

func (f *fakeBooks) InsertStub(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.books[id]; ok {
		return false, nil
	}
	f.books[id] = &model.Book{ID: id, Title: model.StubBookTitle, Categories: pq.StringArray{}}
	return true, nil
}

func (f *fakeBooks) FindByID(_ context.Context, id string) (*model.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.books[id]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeBooks) FindByIDs(_ context.Context, ids []string) ([]model.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Book{}
	for _, id := range ids {
		if b, ok := f.books[id]; ok {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBooks) sorted(filter func(*model.Book) bool, exclude []string, limit int) []model.Book {
	skip := map[string]bool{}
	for _, id := range exclude {
		skip[id] = true
	}
	out := []model.Book{}
	for _, b := range f.books {
		if !skip[b.ID] && filter(b) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := out[i].AverageRating, out[j].AverageRating
		switch {
		case ai == nil && aj == nil:
			return out[i].ID < out[j].ID
		case ai == nil:
			return false
		case aj == nil:
			return true
		case *ai != *aj:
			return *ai > *aj
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (f *fakeBooks) FindByCategories(_ context.Context, categories, exclude []string, limit int) ([]model.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := map[string]bool{}
	for _, c := range categories {
		want[c] = true
	}
	return f.sorted(func(b *model.Book) bool {
		for _, c := range b.Categories {
			if want[c] {
				return true
			}
		}
		return false
	}, exclude, limit), nil
}

func (f *fakeBooks) FindTopRated(_ context.Context, minRating float64, exclude []string, limit int) ([]model.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(b *model.Book) bool {
		return b.AverageRating != nil && *b.AverageRating >= minRating
	}, exclude, limit), nil
}

func (f *fakeBooks) List(_ context.Context, limit, offset int) ([]model.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.sorted(func(*model.Book) bool { return true }, nil, len(f.books))
	if offset >= len(all) {
		return []model.Book{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// lists

type fakeLists struct{ *memStore }

func (f *fakeLists) Create(_ context.Context, userID uuid.UUID, name string) (*model.BookList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.lists {
		if l.UserID == userID && l.Name == name {
			return nil, errUniqueViolation
		}
	}
	l := &model.BookList{ID: f.next(), UserID: userID, Name: name, CreatedAt: time.Now()}
	f.lists[l.ID] = l
	copied := *l
	return &copied, nil
}

func (f *fakeLists) FindOwned(_ context.Context, userID uuid.UUID, listID int64) (*model.BookList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lists[listID]
	if !ok || l.UserID != userID {
		return nil, nil
	}
	copied := *l
	return &copied, nil
}

func (f *fakeLists) ExistsByName(_ context.Context, userID uuid.UUID, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.lists {
		if l.UserID == userID && l.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLists) ListByUser(_ context.Context, userID uuid.UUID) ([]model.BookListSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.BookListSummary{}
	for _, l := range f.lists {
		if l.UserID == userID {
			out = append(out, model.BookListSummary{BookList: *l, EntryCount: len(f.entries[l.ID])})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeLists) ListBooks(_ context.Context, listID int64) ([]model.ListedBook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.ListedBook{}
	entries := f.entries[listID]
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		out = append(out, model.ListedBook{AddedAt: e.addedAt, Book: *f.books[e.bookID]})
	}
	return out, nil
}

func (f *fakeLists) Delete(_ context.Context, listID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, listID)
	delete(f.lists, listID)
	return nil
}

func (f *fakeLists) EntryExists(_ context.Context, listID int64, bookID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries[listID] {
		if e.bookID == bookID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLists) AddEntry(_ context.Context, listID int64, bookID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries[listID] {
		if e.bookID == bookID {
			return errUniqueViolation
		}
	}
	if _, ok := f.books[bookID]; !ok {
		return errors.New("foreign key violation: book")
	}
	f.entries[listID] = append(f.entries[listID], listEntry{id: f.next(), bookID: bookID, addedAt: time.Now()})
	return nil
}

func (f *fakeLists) RemoveEntry(_ context.Context, listID int64, bookID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries := f.entries[listID]
	for i, e := range entries {
		if e.bookID == bookID {
			f.entries[listID] = append(entries[:i], entries[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLists) CountEntries(_ context.Context, listID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries[listID]), nil
}

func (f *fakeLists) BookIDsByUser(_ context.Context, userID uuid.UUID) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]bool{}
	ids := []string{}
	for _, l := range f.lists {
		if l.UserID != userID {
			continue
		}
		for _, e := range f.entries[l.ID] {
			if !seen[e.bookID] {
				seen[e.bookID] = true
				ids = append(ids, e.bookID)
			}
		}
	}
	return ids, nil
}

// ratings

type fakeRatings struct{ *memStore }

func (f *fakeRatings) recompute(bookID string) *model.RatingSummary {
	var values []int
	for k, r := range f.ratings {
		if k.book == bookID {
			values = append(values, r.Rating)
		}
	}
	summary := &model.RatingSummary{Count: len(values)}
	b := f.books[bookID]
	if mean, ok := model.MeanRating(values); ok {
		summary.Average = mean
		b.AverageRating = &mean
	} else {
		b.AverageRating = nil
	}
	return summary
}

func (f *fakeRatings) Rate(_ context.Context, userID uuid.UUID, bookID string, rating int) (*model.RatingSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.books[bookID]; !ok {
		return nil, errors.New("foreign key violation: book")
	}
	key := ratingKey{userID, bookID}
	if r, ok := f.ratings[key]; ok {
		r.Rating = rating
		r.UpdatedAt = time.Now()
	} else {
		f.ratings[key] = &model.Rating{ID: f.next(), UserID: userID, BookID: bookID, Rating: rating, CreatedAt: time.Now()}
	}
	summary := f.recompute(bookID)
	summary.Rating = rating
	return summary, nil
}

func (f *fakeRatings) Delete(_ context.Context, userID uuid.UUID, bookID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := ratingKey{userID, bookID}
	if _, ok := f.ratings[key]; !ok {
		return false, nil
	}
	delete(f.ratings, key)
	return true, nil
}

func (f *fakeRatings) RecomputeAverage(_ context.Context, bookID string) (*model.RatingSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recompute(bookID), nil
}

func (f *fakeRatings) FindByUserAndBook(_ context.Context, userID uuid.UUID, bookID string) (*model.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.ratings[ratingKey{userID, bookID}]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, nil
}

func (m *memStore) ratingCount(userID uuid.UUID, bookID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ratings[ratingKey{userID, bookID}]; ok {
		return 1
	}
	return 0
}

// posts

type fakePosts struct{ *memStore }

func (f *fakePosts) Create(_ context.Context, post *model.Post) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post.ID = f.next()
	post.CreatedAt = time.Now()
	copied := *post
	f.posts[post.ID] = &copied
	return post, nil
}

func (f *fakePosts) ListRecent(_ context.Context, page int, limit int) (*repository.PaginatedPosts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := []model.PostDetails{}
	for _, p := range f.posts {
		all = append(all, model.PostDetails{Post: *p, Username: f.users[p.UserID].Username})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := len(all)
	offset := (page - 1) * limit
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return &repository.PaginatedPosts{
		Data: all[offset:end],
		Meta: repository.PaginationMeta{
			CurrentPage: page,
			TotalPages:  (total + limit - 1) / limit,
			TotalItems:  total,
			PerPage:     limit,
		},
	}, nil
}

func (f *fakePosts) Delete(_ context.Context, postID int64, userID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[postID]
	if !ok || p.UserID != userID {
		return false, nil
	}
	delete(f.posts, postID)
	return true, nil
}

// collaborators

type fakeUpstream struct {
	volumes   map[string]model.BookUpsert
	searchErr error
	searches  int
}

func (f *fakeUpstream) Search(_ context.Context, query string) ([]model.BookUpsert, error) {
	f.searches++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	out := []model.BookUpsert{}
	for _, v := range f.volumes {
		if v.Title != nil && strings.Contains(strings.ToLower(*v.Title), strings.ToLower(query)) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUpstream) Volume(_ context.Context, id string) (*model.BookUpsert, error) {
	v, ok := f.volumes[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &v, nil
}

type fakeIndex struct {
	mu      sync.Mutex
	docs    map[string]string
	failing bool
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: map[string]string{}}
}

func (f *fakeIndex) IndexBook(book *model.Book) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[book.ID] = strings.ToLower(book.Title + " " + book.Authors)
	return nil
}

func (f *fakeIndex) Search(text string, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return nil, errors.New("index closed")
	}
	ids := []string{}
	for id, doc := range f.docs {
		if strings.Contains(doc, strings.ToLower(text)) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *recordingPublisher) record(subject string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *recordingPublisher) published(subject string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, s := range p.subjects {
		if s == subject {
			n++
		}
	}
	return n
}

func (p *recordingPublisher) PublishBookRated(uuid.UUID, string, int, float64) error {
	return p.record("book.rated")
}

func (p *recordingPublisher) PublishBookAddedToList(uuid.UUID, int64, string) error {
	return p.record("list.book_added")
}

func (p *recordingPublisher) PublishBookStubCreated(string) error {
	return p.record("book.stub_created")
}

// fixture wires every service over one memStore.
type fixture struct {
	store     *memStore
	users     *fakeUsers
	upstream  *fakeUpstream
	index     *fakeIndex
	publisher *recordingPublisher

	catalog         CatalogService
	lists           ListService
	ratings         RatingService
	recommendations RecommendationService
	profiles        ProfileService
	posts           PostService
}

func newFixture(opts RatingOptions) *fixture {
	store := newMemStore()
	f := &fixture{
		store:     store,
		users:     &fakeUsers{memStore: store},
		upstream:  &fakeUpstream{volumes: map[string]model.BookUpsert{}},
		index:     newFakeIndex(),
		publisher: &recordingPublisher{},
	}

	books := &fakeBooks{store}
	lists := &fakeLists{store}
	profiles := &fakeProfiles{store}

	f.catalog = NewCatalogService(books, f.upstream, f.index, f.publisher)
	f.lists = NewListService(lists, f.catalog, f.publisher)
	f.ratings = NewRatingService(&fakeRatings{store}, f.catalog, f.publisher, opts)
	f.recommendations = NewRecommendationService(profiles, lists, books)
	f.profiles = NewProfileService(profiles)
	f.posts = NewPostService(&fakePosts{store}, f.catalog)
	return f
}

func (f *fixture) newUser(username string, genres ...string) uuid.UUID {
	u, err := f.users.Create(context.Background(), &model.User{
		Email:    username + "@test.com",
		Username: username,
	}, genres)
	if err != nil {
		panic(err)
	}
	return u.ID
}

func (f *fixture) defaultList(userID uuid.UUID) int64 {
	lists, _ := (&fakeLists{f.store}).ListByUser(context.Background(), userID)
	return lists[0].ID
}

func ptr[T any](v T) *T { return &v }
