package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Publisher stores DID documents in Amazon S3 (or compatible APIs).
type S3Publisher struct {
	client   *s3.Client
	uploader *manager.Uploader
}

func NewS3Publisher(client *s3.Client) *S3Publisher {
	return &S3Publisher{
		client:   client,
		uploader: manager.NewUploader(client),
	}
}

// Publish uploads the document as JSON under <prefix>/<did>.json. DID
// strings contain colons, which S3 keys tolerate but some tooling does not,
// so colons are replaced with underscores in the object key.
func (p *S3Publisher) Publish(ctx context.Context, doc DIDDocument, opts PublishOptions) (string, error) {
	if opts.Bucket == "" {
		return "", fmt.Errorf("registry bucket is required")
	}
	if doc.DID == "" {
		return "", fmt.Errorf("did is required")
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal did document: %w", err)
	}

	key := documentKey(doc.DID, opts.KeyPrefix)

	_, err = p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(opts.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return "", fmt.Errorf("upload did document: %w", err)
	}

	return fmt.Sprintf("s3://%s/%s", opts.Bucket, key), nil
}

func (p *S3Publisher) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	if bucket == "" {
		return nil, fmt.Errorf("registry bucket is required")
	}

	var objects []ObjectInfo
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	}
	if strings.TrimSpace(prefix) != "" {
		input.Prefix = aws.String(prefix)
	}

	for {
		output, err := p.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("list did documents: %w", err)
		}

		for _, obj := range output.Contents {
			objects = append(objects, ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: obj.LastModified,
			})
		}

		if !aws.ToBool(output.IsTruncated) || output.NextContinuationToken == nil {
			break
		}
		input.ContinuationToken = output.NextContinuationToken
	}

	return objects, nil
}

var _ Publisher = (*S3Publisher)(nil)

// documentKey maps a DID to its object key under the configured prefix.
func documentKey(did, keyPrefix string) string {
	key := strings.ReplaceAll(did, ":", "_") + ".json"
	if prefix := strings.Trim(keyPrefix, "/"); prefix != "" {
		key = prefix + "/" + key
	}
	return key
}
