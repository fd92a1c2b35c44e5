package cosmos

import (
	"context"
	"errors"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
)

// api is the part of the Cosmos SDK the adapter calls. It has no call that
// creates a container.
type api interface {
	ReadDatabase(ctx context.Context, db string) error
	CreateDatabase(ctx context.Context, db string) error
	ReadContainer(ctx context.Context, db, container string) (pkPaths []string, err error)
	CreateItem(ctx context.Context, db, container string, pk azcosmos.PartitionKey, item []byte) error
}

type sdkAPI struct {
	client *azcosmos.Client
}

func dial(endpoint, key string) (api, error) {
	cred, err := azcosmos.NewKeyCredential(key)
	if err != nil {
		return nil, err
	}
	client, err := azcosmos.NewClientWithKey(endpoint, cred, nil)
	if err != nil {
		return nil, err
	}
	return sdkAPI{client: client}, nil
}

func (s sdkAPI) ReadDatabase(ctx context.Context, db string) error {
	d, err := s.client.NewDatabase(db)
	if err != nil {
		return err
	}
	_, err = d.Read(ctx, nil)
	return err
}

func (s sdkAPI) CreateDatabase(ctx context.Context, db string) error {
	_, err := s.client.CreateDatabase(ctx, azcosmos.DatabaseProperties{ID: db}, nil)
	return err
}

func (s sdkAPI) ReadContainer(ctx context.Context, db, container string) ([]string, error) {
	c, err := s.client.NewContainer(db, container)
	if err != nil {
		return nil, err
	}
	resp, err := c.Read(ctx, nil)
	if err != nil {
		return nil, err
	}
	if resp.ContainerProperties == nil {
		return nil, nil
	}
	return resp.ContainerProperties.PartitionKeyDefinition.Paths, nil
}

func (s sdkAPI) CreateItem(ctx context.Context, db, container string, pk azcosmos.PartitionKey, item []byte) error {
	c, err := s.client.NewContainer(db, container)
	if err != nil {
		return err
	}
	_, err = c.CreateItem(ctx, pk, item, nil)
	return err
}

func statusCode(err error) int {
	var re *azcore.ResponseError
	if errors.As(err, &re) {
		return re.StatusCode
	}
	return 0
}

func isNotFound(err error) bool { return statusCode(err) == http.StatusNotFound }

func isConflict(err error) bool { return statusCode(err) == http.StatusConflict }
