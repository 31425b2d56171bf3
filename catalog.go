package lecture_archiver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alanbriolat/lecture-archiver/generic"
)

const (
	// PlatformBaseURL is the lecture capture platform all course links point at.
	PlatformBaseURL = "https://echo360.org.uk"

	syllabusLessonType = "SyllabusLessonType"
	mediaStatusReady   = "Processed"
)

var sectionURLPattern = regexp.MustCompile(`^https?://echo360\.org\.uk/section/([A-Za-z0-9-]+)(/.*)?$`)

// SectionID extracts the UUID-shaped section id from a course link, or None
// if the link doesn't match the expected .../section/<id>(/...) shape.
func SectionID(link string) generic.Option[string] {
	m := sectionURLPattern.FindStringSubmatch(link)
	if m == nil {
		return generic.None[string]()
	}
	if _, err := uuid.Parse(m[1]); err != nil {
		return generic.None[string]()
	}
	return generic.Some(m[1])
}

// ResolveSyllabusLink rewrites any valid course link to the platform's JSON
// syllabus endpoint for that section.
func ResolveSyllabusLink(link string) generic.Option[string] {
	id := SectionID(link)
	if id.IsNone() {
		return generic.None[string]()
	}
	return generic.Some(fmt.Sprintf("%s/section/%s/syllabus", PlatformBaseURL, id.Value))
}

// An Authenticator can establish an authenticated platform session on the
// shared HTTP client's cookie jar. Returns true on success.
type Authenticator interface {
	Authenticate(ctx context.Context, targetURL string) bool
}

// A LectureSession is a syllabus entry that passed eligibility validation:
// lesson type, a nested lesson object, and at least one media attached.
type LectureSession struct {
	ID   string
	Name string
}

// A MediaDescriptor is the validated per-lesson media response: a processed
// video with its current media files split by camera track.
type MediaDescriptor struct {
	Title          string
	SectionNumber  string
	MediaID        string
	RecordedAt     time.Time
	PrimaryFiles   []MediaFile
	SecondaryFiles []MediaFile
}

// Raw wire shapes. All traversal goes through the validate* functions below,
// which produce typed values or an error, never partially-checked maps.

type syllabusResponse struct {
	Status string          `json:"status"`
	Data   []syllabusEntry `json:"data"`
}

type syllabusEntry struct {
	Type   string          `json:"type"`
	Lesson *syllabusLesson `json:"lesson"`
}

type syllabusLesson struct {
	Lesson     *lessonInfo       `json:"lesson"`
	Medias     []json.RawMessage `json:"medias"`
	IsPast     bool              `json:"isPast"`
	HasContent bool              `json:"hasContent"`
	HasVideo   bool              `json:"hasVideo"`
}

type lessonInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type mediaResponse struct {
	Status string       `json:"status"`
	Data   []mediaEntry `json:"data"`
}

type mediaEntry struct {
	Video *struct {
		Media *lessonMedia `json:"media"`
	} `json:"video"`
	UserSection *struct {
		SectionNumber string `json:"sectionNumber"`
	} `json:"userSection"`
}

type lessonMedia struct {
	Status    string `json:"status"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
	Media     *struct {
		Current *currentMedia `json:"current"`
	} `json:"media"`
}

type currentMedia struct {
	MediaID        string      `json:"mediaId"`
	PrimaryFiles   []MediaFile `json:"primaryFiles"`
	SecondaryFiles []MediaFile `json:"secondaryFiles"`
}

// validateSyllabusEntry gates a raw syllabus entry into a LectureSession.
// The presence of medias is the only hard gate besides the lesson structure
// itself; isPast/hasContent/hasVideo are informational and checked by the
// caller for debug logging only.
func validateSyllabusEntry(e *syllabusEntry) (LectureSession, error) {
	if e.Type != syllabusLessonType {
		return LectureSession{}, fmt.Errorf("%w: entry type %q is not a lesson", ErrUnexpectedAPIShape, e.Type)
	}
	if e.Lesson == nil || e.Lesson.Lesson == nil || e.Lesson.Lesson.ID == "" {
		return LectureSession{}, fmt.Errorf("%w: entry has no nested lesson", ErrUnexpectedAPIShape)
	}
	if len(e.Lesson.Medias) == 0 {
		return LectureSession{}, fmt.Errorf("%w: lesson %q has no media", ErrUnexpectedAPIShape, e.Lesson.Lesson.Name)
	}
	return LectureSession{ID: e.Lesson.Lesson.ID, Name: e.Lesson.Lesson.Name}, nil
}

// validateMediaEntry gates a raw per-lesson media entry into a MediaDescriptor.
func validateMediaEntry(e *mediaEntry) (MediaDescriptor, error) {
	if e.Video == nil || e.Video.Media == nil {
		return MediaDescriptor{}, fmt.Errorf("%w: no video media", ErrUnexpectedAPIShape)
	}
	media := e.Video.Media
	if media.Status != mediaStatusReady {
		return MediaDescriptor{}, fmt.Errorf("%w: video status %q is not processed", ErrUnexpectedAPIShape, media.Status)
	}
	if media.Media == nil || media.Media.Current == nil || media.Media.Current.MediaID == "" {
		return MediaDescriptor{}, fmt.Errorf("%w: no current media descriptor", ErrUnexpectedAPIShape)
	}
	if e.UserSection == nil || e.UserSection.SectionNumber == "" {
		return MediaDescriptor{}, fmt.Errorf("%w: no section metadata", ErrUnexpectedAPIShape)
	}
	recordedAt, err := time.Parse(time.RFC3339, media.CreatedAt)
	if err != nil {
		return MediaDescriptor{}, fmt.Errorf("%w: bad createdAt %q", ErrUnexpectedAPIShape, media.CreatedAt)
	}
	title := media.Name
	if title == "" {
		title = "Lecture"
	}
	return MediaDescriptor{
		Title:          title,
		SectionNumber:  e.UserSection.SectionNumber,
		MediaID:        media.Media.Current.MediaID,
		RecordedAt:     recordedAt,
		PrimaryFiles:   media.Media.Current.PrimaryFiles,
		SecondaryFiles: media.Media.Current.SecondaryFiles,
	}, nil
}

// errNeedsLogin signals that a request bounced to the login page; the
// Resolver authenticates and retries once before giving up.
var errNeedsLogin = errors.New("redirected to login page")

// A Resolver walks the platform's two-level JSON API (syllabus -> lesson ->
// media) and flattens it into DownloadTargets.
type Resolver struct {
	Client *http.Client
	Auth   Authenticator
	Log    *zap.SugaredLogger
	// BaseURL overrides PlatformBaseURL, for tests.
	BaseURL string
}

func (r *Resolver) base() string {
	if r.BaseURL != "" {
		return r.BaseURL
	}
	return PlatformBaseURL
}

// ResolveCourse resolves one course link into an ordered list of download
// targets. Per-lesson problems are logged and skipped; an error return means
// the whole course couldn't be resolved (the caller should move on to the
// next course, not abort the batch).
func (r *Resolver) ResolveCourse(ctx context.Context, link string) ([]DownloadTarget, error) {
	id := SectionID(link)
	if id.IsNone() {
		return nil, fmt.Errorf("%w: %s", ErrMalformedURL, link)
	}
	syllabusURL := fmt.Sprintf("%s/section/%s/syllabus", r.base(), id.Value)

	entries, err := r.fetchSyllabus(ctx, syllabusURL)
	if errors.Is(err, errNeedsLogin) {
		r.Log.Info("Session not authenticated, logging in...")
		if r.Auth == nil || !r.Auth.Authenticate(ctx, link) {
			return nil, fmt.Errorf("could not authenticate for %s", link)
		}
		entries, err = r.fetchSyllabus(ctx, syllabusURL)
		if errors.Is(err, errNeedsLogin) {
			err = fmt.Errorf("%w: still redirected to login after authenticating", ErrUpstreamUnavailable)
		}
	}
	if err != nil {
		return nil, err
	}

	var targets []DownloadTarget
	for i := range entries {
		entry := &entries[i]
		session, err := validateSyllabusEntry(entry)
		if err != nil {
			r.Log.Debugf("Skipping syllabus entry %d: %v", i, err)
			continue
		}
		// Informational only: some recordings are usable despite these flags.
		if entry.Lesson != nil {
			if !entry.Lesson.IsPast {
				r.Log.Debugf("Lesson %q is not in the past", session.Name)
			}
			if !entry.Lesson.HasContent {
				r.Log.Debugf("Lesson %q reports no content", session.Name)
			}
			if !entry.Lesson.HasVideo {
				r.Log.Debugf("Lesson %q reports no video", session.Name)
			}
		}
		lessonTargets, err := r.resolveLesson(ctx, session)
		if err != nil {
			r.Log.Debugf("Skipping lesson %q: %v", session.Name, err)
			continue
		}
		targets = append(targets, lessonTargets...)
	}
	return targets, nil
}

func (r *Resolver) fetchSyllabus(ctx context.Context, syllabusURL string) ([]syllabusEntry, error) {
	var response syllabusResponse
	if err := r.getJSON(ctx, syllabusURL, &response); err != nil {
		return nil, err
	}
	if response.Status != "ok" {
		return nil, fmt.Errorf("%w: syllabus status %q", ErrUnexpectedAPIShape, response.Status)
	}
	return response.Data, nil
}

func (r *Resolver) resolveLesson(ctx context.Context, session LectureSession) ([]DownloadTarget, error) {
	mediaURL := fmt.Sprintf("%s/lesson/%s/media", r.base(), session.ID)
	var response mediaResponse
	if err := r.getJSON(ctx, mediaURL, &response); err != nil {
		return nil, err
	}
	if response.Status != "ok" {
		return nil, fmt.Errorf("%w: media status %q", ErrUnexpectedAPIShape, response.Status)
	}
	if len(response.Data) == 0 {
		return nil, fmt.Errorf("%w: empty media response", ErrUnexpectedAPIShape)
	}
	desc, err := validateMediaEntry(&response.Data[0])
	if err != nil {
		return nil, err
	}
	return TargetsFromMedia(&desc), nil
}

// getJSON fetches a URL and decodes the body, reporting errNeedsLogin if the
// request was redirected to the login page instead.
func (r *Resolver) getJSON(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	if isLoginURL(resp.Request.URL) {
		return errNeedsLogin
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %s for %s", ErrUpstreamUnavailable, resp.Status, rawURL)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedAPIShape, err)
	}
	return nil
}

// isLoginURL reports whether a (post-redirect) URL landed on the platform's
// login surface rather than the content it was asked for.
func isLoginURL(u *url.URL) bool {
	return strings.HasPrefix(u.Host, "login.") || strings.HasPrefix(u.Path, "/login")
}
