package inkcard

import (
	"bytes"
	"image/color"
	"testing"
)

func TestImageCache(t *testing.T) {
	PurgeImageCache()
	t.Cleanup(PurgeImageCache)

	i, err := newImageFromReader(bytes.NewReader(dummyPNG(t, dummyImage(4, 4, color.White))))
	if err != nil {
		t.Fatal(err)
	}
	const key = "bg.png"
	if _, ok := LoadImageCache(key); ok {
		t.Fatal("cache should be empty")
	}
	StoreImageCache(key, i)
	StoreImageCache("nil.png", nil)

	got, ok := LoadImageCache(key)
	if !ok {
		t.Fatal("LoadImageCache failed to find cached image")
	}
	if got != i {
		t.Error("cached image differs")
	}
	if _, ok := LoadImageCache("nil.png"); ok {
		t.Error("nil image should not be cached")
	}

	PurgeImageCache()
	if _, ok := LoadImageCache(key); ok {
		t.Error("cache should be empty after purge")
	}
}
