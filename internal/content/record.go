package content

import (
	"encoding/json"

	"github.com/FullBlownAinz/dotcom/internal/gateway"
)

func encodeRecord(value any) (gateway.Record, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var record gateway.Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, err
	}
	return record, nil
}

func decodeRecord(record gateway.Record, out any) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// EncodePost converts a post to its stored record form.
func EncodePost(post Post) (gateway.Record, error) {
	return encodeRecord(post)
}

// DecodePost converts a stored record into a post, inferring the media kind
// for rows written before the kind column existed.
func DecodePost(record gateway.Record) (Post, error) {
	var post Post
	if err := decodeRecord(record, &post); err != nil {
		return Post{}, err
	}
	if post.HeaderMediaKind == "" {
		post.HeaderMediaKind = InferMediaKind(post.HeaderMediaURL)
	}
	return post, nil
}

// DecodePosts converts a full query result.
func DecodePosts(records []gateway.Record) ([]Post, error) {
	posts := make([]Post, 0, len(records))
	for _, record := range records {
		post, err := DecodePost(record)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// EncodeMerchItem converts a merch item to its stored record form. The
// legacy image column is resynchronized before encoding.
func EncodeMerchItem(item MerchItem) (gateway.Record, error) {
	item.SyncLegacyImage()
	return encodeRecord(item)
}

// DecodeMerchItem converts a stored record into a merch item.
func DecodeMerchItem(record gateway.Record) (MerchItem, error) {
	var item MerchItem
	if err := decodeRecord(record, &item); err != nil {
		return MerchItem{}, err
	}
	return item, nil
}

// DecodeMerchItems converts a full query result.
func DecodeMerchItems(records []gateway.Record) ([]MerchItem, error) {
	items := make([]MerchItem, 0, len(records))
	for _, record := range records {
		item, err := DecodeMerchItem(record)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// EncodeAppItem converts an app item to its stored record form.
func EncodeAppItem(item AppItem) (gateway.Record, error) {
	return encodeRecord(item)
}

// DecodeAppItem converts a stored record into an app item.
func DecodeAppItem(record gateway.Record) (AppItem, error) {
	var item AppItem
	if err := decodeRecord(record, &item); err != nil {
		return AppItem{}, err
	}
	return item, nil
}

// DecodeAppItems converts a full query result.
func DecodeAppItems(records []gateway.Record) ([]AppItem, error) {
	items := make([]AppItem, 0, len(records))
	for _, record := range records {
		item, err := DecodeAppItem(record)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// EncodeSiteInfo converts the info singleton to its stored record form. The
// singleton row is keyed by a constant-true id column.
func EncodeSiteInfo(info SiteInfo) (gateway.Record, error) {
	record, err := encodeRecord(info)
	if err != nil {
		return nil, err
	}
	record["id"] = true
	return record, nil
}

// DecodeSiteInfo converts a stored record into the info singleton.
func DecodeSiteInfo(record gateway.Record) (SiteInfo, error) {
	var info SiteInfo
	if err := decodeRecord(record, &info); err != nil {
		return SiteInfo{}, err
	}
	return info, nil
}

// EncodeSettings converts the settings singleton to its stored record form.
func EncodeSettings(settings SiteSettings) (gateway.Record, error) {
	record, err := encodeRecord(settings)
	if err != nil {
		return nil, err
	}
	record["id"] = true
	return record, nil
}

// DecodeSettings converts a stored record into the settings singleton.
func DecodeSettings(record gateway.Record) (SiteSettings, error) {
	var settings SiteSettings
	if err := decodeRecord(record, &settings); err != nil {
		return SiteSettings{}, err
	}
	return settings, nil
}
