package predict

import (
	"context"
	"errors"
	"fmt"
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/gsplat"
)

// constant returns a one-splat cloud colored like the image's first pixel.
var constant = Func(func(_ context.Context, img image.Image) (*gsplat.Cloud, error) {
	r, g, b, _ := img.At(img.Bounds().Min.X, img.Bounds().Min.Y).RGBA()
	c := mgl32.Vec3{float32(r) / 0xffff, float32(g) / 0xffff, float32(b) / 0xffff}
	return gsplat.NewCloudFrom([]gsplat.Gaussian{gsplat.NewGaussian(mgl32.Vec3{}, 1, 1, c)}), nil
})

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want Status
	}{
		{nil, Success},
		{ErrModelNotLoaded, ModelNotLoaded},
		{fmt.Errorf("load: %w", ErrInvalidModelFormat), InvalidModelFormat},
		{ErrInvalidInput, InvalidInput},
		{ErrEngineUnavailable, EngineUnavailable},
		{ErrInferenceFailed, InferenceFailed},
		{context.Canceled, InferenceFailed},
		{errors.New("other"), InferenceFailed},
	}
	for _, tt := range tests {
		if got := StatusOf(tt.err); got != tt.want {
			t.Errorf("StatusOf(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestStatusString(t *testing.T) {
	if Success.String() != "Success" || InvalidModelFormat.String() != "InvalidModelFormat" || Status(42).String() != "Unknown" {
		t.Error("Status.String")
	}
}

func TestPredictValidation(t *testing.T) {
	ctx := context.Background()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))

	if _, err := Predict(ctx, nil, img); !errors.Is(err, ErrEngineUnavailable) {
		t.Errorf("nil predictor: got %v", err)
	}
	if _, err := Predict(ctx, constant, nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("nil image: got %v", err)
	}
	if _, err := Predict(ctx, constant, image.NewRGBA(image.Rect(0, 0, 0, 3))); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty image: got %v", err)
	}
	nilCloud := Func(func(context.Context, image.Image) (*gsplat.Cloud, error) { return nil, nil })
	if _, err := Predict(ctx, nilCloud, img); !errors.Is(err, ErrInferenceFailed) {
		t.Errorf("nil cloud: got %v", err)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := Predict(canceled, constant, img); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled: got %v", err)
	}

	cloud, err := Predict(ctx, constant, img)
	if err != nil || cloud.Len() != 1 {
		t.Errorf("Predict = %v, %v", cloud, err)
	}
}

func TestPredictAsync(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Pix[0], img.Pix[3] = 255, 255

	type result struct {
		cloud  *gsplat.Cloud
		status Status
	}
	got := make(chan result, 1)
	done := PredictAsync(context.Background(), constant, img, func(c *gsplat.Cloud, s Status, _ error) {
		got <- result{c, s}
	})
	<-done
	res := <-got
	if res.status != Success || res.cloud == nil {
		t.Fatalf("result = %+v", res)
	}
	g, _ := res.cloud.At(0)
	if g.ColorDC[0] != 1 || g.ColorDC[1] != 0 {
		t.Errorf("ColorDC = %v", g.ColorDC)
	}
}

func TestPredictAsyncFailure(t *testing.T) {
	failing := Func(func(context.Context, image.Image) (*gsplat.Cloud, error) {
		return nil, fmt.Errorf("engine: %w", ErrModelNotLoaded)
	})
	var status Status
	var cloud *gsplat.Cloud
	<-PredictAsync(context.Background(), failing, image.NewRGBA(image.Rect(0, 0, 1, 1)), func(c *gsplat.Cloud, s Status, _ error) {
		cloud, status = c, s
	})
	if status != ModelNotLoaded || cloud != nil {
		t.Errorf("status=%v cloud=%v", status, cloud)
	}
	// A nil callback is allowed.
	<-PredictAsync(context.Background(), failing, nil, nil)
}
