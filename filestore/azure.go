package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

type AzureConfig struct {
	// ConnectionString wins over AccountURL when both are set. With only an
	// AccountURL the default Azure credential chain is used.
	ConnectionString string
	AccountURL       string
	Container        string
	// PublicBaseURL replaces the account URL in returned links, e.g. a CDN.
	PublicBaseURL string
}

// AzureBlob stores uploads as block blobs in one container.
type AzureBlob struct {
	client    *azblob.Client
	container string
	baseURL   string
}

func NewAzureBlob(ctx context.Context, cfg AzureConfig) (*AzureBlob, error) {
	var (
		client *azblob.Client
		err    error
	)
	switch {
	case cfg.ConnectionString != "":
		client, err = azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	case cfg.AccountURL != "":
		var cred azcore.TokenCredential
		cred, err = azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("azure credential: %w", err)
		}
		client, err = azblob.NewClient(cfg.AccountURL, cred, nil)
	default:
		return nil, errors.New("azure storage needs a connection string or account url")
	}
	if err != nil {
		return nil, fmt.Errorf("azure blob client: %w", err)
	}

	if _, err := client.CreateContainer(ctx, cfg.Container, nil); err != nil {
		var respErr *azcore.ResponseError
		if !errors.As(err, &respErr) || respErr.ErrorCode != "ContainerAlreadyExists" {
			return nil, fmt.Errorf("create container %s: %w", cfg.Container, err)
		}
	}

	base := cfg.PublicBaseURL
	if base == "" {
		base = client.URL()
	}
	return &AzureBlob{
		client:    client,
		container: cfg.Container,
		baseURL:   strings.TrimRight(base, "/"),
	}, nil
}

func (a *AzureBlob) Save(ctx context.Context, original string, r io.Reader, contentType string) (string, error) {
	name, err := objectName(original)
	if err != nil {
		return "", err
	}
	opts := &azblob.UploadStreamOptions{}
	if contentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &contentType}
	}
	if _, err := a.client.UploadStream(ctx, a.container, name, r, opts); err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return a.baseURL + "/" + a.container + "/" + name, nil
}
