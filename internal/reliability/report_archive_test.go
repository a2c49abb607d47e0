package reliability

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quietLog = zerolog.New(nil).Level(zerolog.Disabled)

// memoryStore is an in-memory ObjectStore
type memoryStore struct {
	objects map[string]ObjectInfo
	bodies  map[string]string
	failOn  string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string]ObjectInfo{}, bodies: map[string]string{}}
}

func (m *memoryStore) Upload(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	if key == m.failOn {
		return "", errors.New("upload refused")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.bodies[key] = string(data)
	m.objects[key] = ObjectInfo{Key: key, Size: int64(len(data)), LastModified: time.Now()}
	return "https://bucket.example/" + key, nil
}

func (m *memoryStore) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	for key, obj := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, obj)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	if key == m.failOn {
		return errors.New("delete refused")
	}
	delete(m.objects, key)
	return nil
}

func TestReportArchiverArchive(t *testing.T) {
	store := newMemoryStore()
	archiver := NewReportArchiver(store, "reports/", quietLog)

	location, err := archiver.Archive(context.Background(), "abc", []byte(`{"id":"abc"}`))
	require.NoError(t, err)
	assert.Equal(t, "https://bucket.example/reports/abc.json", location)
	assert.Equal(t, `{"id":"abc"}`, store.bodies["reports/abc.json"])

	_, err = archiver.Archive(context.Background(), "", []byte(`{}`))
	assert.Error(t, err)

	store.failOn = "reports/bad.json"
	_, err = archiver.Archive(context.Background(), "bad", []byte(`{}`))
	assert.EqualError(t, err, "upload refused")
}

func TestReportArchiverListAndRotate(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	store := newMemoryStore()
	for i, age := range []int{1, 5, 40, 100, 120, 200} {
		key := "reports/r" + string(rune('a'+i)) + ".json"
		store.objects[key] = ObjectInfo{Key: key, Size: 10, LastModified: now.AddDate(0, 0, -age)}
	}
	store.objects["reports/nested/x.json"] = ObjectInfo{Key: "reports/nested/x.json", LastModified: now}
	store.objects["reports/notes.txt"] = ObjectInfo{Key: "reports/notes.txt", LastModified: now}

	archiver := NewReportArchiver(store, "reports/", quietLog)
	archiver.now = func() time.Time { return now }

	reports, err := archiver.List(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 6)
	assert.Equal(t, "ra", reports[0].ReportID, "newest first")
	assert.Equal(t, int64(24), reports[0].AgeHours)
	assert.Equal(t, "rf", reports[5].ReportID)

	deleted, err := archiver.Rotate(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, deleted, "zero retention keeps everything")

	store.failOn = "reports/re.json"
	deleted, err = archiver.Rotate(context.Background(), 90)
	require.NoError(t, err)
	// rd and rf are past retention, re fails to delete
	assert.Equal(t, 2, deleted)

	reports, err = archiver.List(context.Background())
	require.NoError(t, err)
	var ids []string
	for _, r := range reports {
		ids = append(ids, r.ReportID)
	}
	assert.Equal(t, []string{"ra", "rb", "rc", "re"}, ids)
}

func TestRotateKeepsMinimum(t *testing.T) {
	now := time.Now()
	store := newMemoryStore()
	for _, key := range []string{"reports/a.json", "reports/b.json", "reports/c.json"} {
		store.objects[key] = ObjectInfo{Key: key, LastModified: now.AddDate(-1, 0, 0)}
	}

	job := NewArchiveRotationJob(NewReportArchiver(store, "reports/", quietLog), 7, quietLog)
	assert.Equal(t, "archive_rotation", job.Name())
	require.NoError(t, job.Run())
	assert.Len(t, store.objects, 3)
}
