package httpserver

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/Clark-Hu/learnhub/internal/domain"
)

func BenchmarkHandleSubmitRating(b *testing.B) {
	ts := buildTestServer(b)
	video := ts.createContent(b, domain.KindVideo, "Benchmark Video")

	raters := make([]domain.Actor, 64)
	for i := range raters {
		raters[i] = domain.Actor{UserID: uuid.NewString(), Role: domain.RoleStudent}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		actor := raters[i%len(raters)]
		rec := ts.do(b, &actor, http.MethodPost, "/api/videos/rating", map[string]interface{}{
			"videoId": video.ID,
			"rating":  float64(i%5 + 1),
			"comment": fmt.Sprintf("run %d", i),
		})
		if rec.Code != http.StatusCreated && rec.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}
