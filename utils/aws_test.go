package utils

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestUploadDataURI(t *testing.T) {
	client := &fakeS3{}
	up := NewS3Uploader(client, "pics", "https://cdn.example.com/")
	uri := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("jpeg"))

	url, err := up.UploadDataURI(context.Background(), uri, "profile-pictures", "user-1")
	require.NoError(t, err)

	key := aws.ToString(client.input.Key)
	assert.True(t, strings.HasPrefix(key, "profile-pictures/user-1-"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.Equal(t, "https://cdn.example.com/"+key, url)
	assert.Equal(t, "pics", aws.ToString(client.input.Bucket))
	assert.Equal(t, "image/jpeg", aws.ToString(client.input.ContentType))
	assert.Equal(t, []byte("jpeg"), client.body)
}

func TestUploadDataURIRejects(t *testing.T) {
	up := NewS3Uploader(&fakeS3{}, "b", "u")
	for _, in := range []string{"", "no-comma", "data:text/plain;base64,aGk=", "data:image/png;base64,%%%", "data:image/png,aGk=", "data:image/png;base64,"} {
		_, err := up.UploadDataURI(context.Background(), in, "f", "p")
		assert.ErrorIs(t, err, ErrInvalidImage, in)
	}

	failing := NewS3Uploader(&fakeS3{err: errors.New("denied")}, "b", "u")
	_, err := failing.UploadDataURI(context.Background(), "data:image/png;base64,aGk=", "f", "p")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidImage)
}

func TestDecodeDataURI(t *testing.T) {
	ct, img, err := DecodeDataURI("data:image/png;base64,aGk=")
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, []byte("hi"), img)

	_, _, err = DecodeDataURI("data:image/png;base64,%%%")
	assert.ErrorIs(t, err, ErrInvalidImage)
}

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = in
	return &ses.SendEmailOutput{}, f.err
}

func TestSendResetEmail(t *testing.T) {
	client := &fakeSES{}
	m := NewSESMailer(client, "no-reply@example.com")

	require.NoError(t, m.SendResetEmail(context.Background(), "ona@example.com", "AB12CD"))
	assert.Equal(t, []string{"ona@example.com"}, client.input.Destination.ToAddresses)
	assert.Equal(t, "no-reply@example.com", aws.ToString(client.input.Source))
	assert.Contains(t, aws.ToString(client.input.Message.Body.Text.Data), "AB12CD")

	client.err = errors.New("throttled")
	assert.Error(t, m.SendResetEmail(context.Background(), "ona@example.com", "AB12CD"))
}
