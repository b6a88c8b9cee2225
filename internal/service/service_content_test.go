package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-proc-box/internal/app"
	"github.com/MKhiriev/go-proc-box/internal/config"
	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/internal/mock"
	"github.com/MKhiriev/go-proc-box/internal/session"
)

const (
	aliceID = "u0000000000000001"
	bobID   = "u0000000000000002"
)

func TestContent_AddFileAndGet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestContent(t)
	alice := session.FromUser(aliceID, false)

	uri, err := c.AddFile(ctx, alice, "hello.txt", strings.NewReader("hello world"), false)
	require.NoError(t, err)
	assert.Equal(t, "files/"+aliceID+"/hello.txt", uri)

	got, err := c.GetFile(ctx, alice, uri)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))
}

func TestContent_AddFileOverwrite(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestContent(t)
	alice := session.FromUser(aliceID, false)

	uri, err := c.AddFile(ctx, alice, "a.txt", strings.NewReader("v1"), false)
	require.NoError(t, err)

	_, err = c.AddFile(ctx, alice, "a.txt", strings.NewReader("v2"), false)
	assert.ErrorIs(t, err, app.ErrFileAlreadyExists)

	again, err := c.AddFile(ctx, alice, "a.txt", strings.NewReader("v2"), true)
	require.NoError(t, err)
	assert.Equal(t, uri, again)

	got, err := c.GetFile(ctx, alice, uri)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))

	// The same name under another owner is a different file.
	_, err = c.AddFile(ctx, session.FromUser(bobID, false), "a.txt", strings.NewReader("bob"), false)
	assert.NoError(t, err)
}

func TestContent_AddFileValidation(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestContent(t)

	_, err := c.AddFile(ctx, session.New(), "", nil, false)
	assert.ErrorIs(t, err, app.ErrLoginRequired)

	alice := session.FromUser(aliceID, false)
	_, err = c.AddFile(ctx, alice, "  ", strings.NewReader("x"), false)
	assert.ErrorIs(t, err, app.ErrInvalidArgument)
	_, err = c.AddFile(ctx, alice, "../escape.txt", strings.NewReader("x"), false)
	assert.ErrorIs(t, err, app.ErrInvalidArgument)
}

func TestContent_DeleteFileAuthorization(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestContent(t)
	alice := session.FromUser(aliceID, false)
	bob := session.FromUser(bobID, false)
	admin := session.FromUser("a0000000000000000", true)

	first, err := c.AddFile(ctx, alice, "one.txt", strings.NewReader("1"), false)
	require.NoError(t, err)
	second, err := c.AddFile(ctx, alice, "two.txt", strings.NewReader("2"), false)
	require.NoError(t, err)

	_, err = c.DeleteFile(ctx, bob, first)
	assert.ErrorIs(t, err, app.ErrUnauthorizedDelete)
	_, err = c.GetFile(ctx, bob, first)
	assert.ErrorIs(t, err, app.ErrUnauthorizedAccess)
	_, err = c.DeleteFile(ctx, session.New(), first)
	assert.ErrorIs(t, err, app.ErrLoginRequired)

	deleted, err := c.DeleteFile(ctx, alice, first)
	require.NoError(t, err)
	assert.True(t, deleted)
	_, err = c.GetFile(ctx, alice, first)
	assert.ErrorIs(t, err, app.ErrFileNotFound)

	deleted, err = c.DeleteFile(ctx, alice, first)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = c.DeleteFile(ctx, admin, second)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestContent_ListFileMetadata(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestContent(t)
	alice := session.FromUser(aliceID, false)
	bob := session.FromUser(bobID, false)
	admin := session.FromUser("a0000000000000000", true)

	_, err := c.AddFile(ctx, alice, "photo.png", strings.NewReader("png"), false)
	require.NoError(t, err)
	_, err = c.AddFile(ctx, alice, "notes.txt", strings.NewReader("notes"), false)
	require.NoError(t, err)
	_, err = c.AddFile(ctx, bob, "bob.txt", strings.NewReader("b"), false)
	require.NoError(t, err)

	own, err := c.ListFileMetadata(ctx, alice)
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, "notes.txt", own[0].Name)
	assert.Equal(t, int64(5), own[0].Size)
	assert.Equal(t, "photo.png", own[1].Name)
	assert.Equal(t, "image/png", own[1].ContentType)
	assert.Equal(t, "files/"+aliceID+"/photo.png", own[1].URI)

	all, err := c.ListFileMetadata(ctx, admin)
	require.NoError(t, err)
	names := make([]string, 0, len(all))
	for _, f := range all {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{aliceID + "/notes.txt", aliceID + "/photo.png", bobID + "/bob.txt"}, names)

	_, err = c.ListFileMetadata(ctx, session.New())
	assert.ErrorIs(t, err, app.ErrLoginRequired)
}

func TestContent_Outputs(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestContent(t)
	bob := session.FromUser(bobID, false)

	uri, err := c.AddOutput(ctx, "MD5 calculator", "text/plain", []byte("digest"))
	require.NoError(t, err)
	assert.Equal(t, "outputs/MD5 calculator-0001", uri)

	got, err := c.GetOutput(ctx, bob, uri)
	require.NoError(t, err)
	assert.Equal(t, "digest", string(got))

	_, err = c.GetOutput(ctx, session.New(), uri)
	assert.ErrorIs(t, err, app.ErrLoginRequired)
	_, err = c.GetOutput(ctx, bob, "files/"+bobID+"/x")
	assert.ErrorIs(t, err, ErrInvalidURI)

	deleted, err := c.DeleteOutput(ctx, bob, uri)
	require.NoError(t, err)
	assert.True(t, deleted)
	_, err = c.GetOutput(ctx, bob, uri)
	assert.ErrorIs(t, err, app.ErrOutputNotFound)

	_, err = c.AddOutput(ctx, "", "text/plain", []byte("x"))
	assert.ErrorIs(t, err, app.ErrInvalidArgument)
}

func TestContent_StorageFailureIsWrapped(t *testing.T) {
	ctrl := gomock.NewController(t)
	blobs := mock.NewMockBlobStorage(ctrl)
	c := NewContentService(blobs, config.Blobs{FilesContainer: testFiles, OutputsContainer: testOutputs}, &sequentialIDs{}, logger.Nop())
	ioErr := errors.New("disk on fire")

	blobs.EXPECT().List(gomock.Any(), testFiles, aliceID+"/").Return(nil, ioErr)

	_, err := c.ListFileMetadata(context.Background(), session.FromUser(aliceID, false))

	assert.ErrorIs(t, err, ioErr)
}

func TestParseFileURI(t *testing.T) {
	tests := []struct {
		name      string
		uri       string
		wantOwner string
		wantName  string
		wantErr   bool
	}{
		{name: "plain", uri: "files/u1/a.txt", wantOwner: "u1", wantName: "a.txt"},
		{name: "nested name", uri: "files/u1/dir/a.txt", wantOwner: "u1", wantName: "dir/a.txt"},
		{name: "wrong container", uri: "outputs/u1/a.txt", wantErr: true},
		{name: "no name", uri: "files/u1/", wantErr: true},
		{name: "no owner", uri: "files//a.txt", wantErr: true},
		{name: "owner only", uri: "files/u1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, name, err := ParseFileURI("files", tt.uri)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidURI)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOwner, owner)
			assert.Equal(t, tt.wantName, name)
		})
	}
}
