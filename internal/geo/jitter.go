package geo

import (
	"math"
	"sync"
	"unicode/utf16"

	"github.com/paulmach/orb"
)

const (
	// JitterMagnitude - полный размах смещения в градусах, каждая ось получает [-0.5, 0.5) от него
	JitterMagnitude = 0.004

	// MaxJitterMeters - верхняя граница расстояния от исходной точки до смещённой
	MaxJitterMeters = 320.0
)

// Offset - смещение точки в градусах
type Offset struct {
	DLat float64
	DLng float64
}

// Hash - 32-битный полиномиальный хеш (h = h*31 + code unit) по UTF-16
// представлению строки с переполнением int32 на каждом шаге.
func Hash(id string) int32 {
	var h int32
	for _, unit := range utf16.Encode([]rune(id)) {
		h = h*31 + int32(unit)
	}
	return h
}

// OffsetFor вычисляет смещение без кеша.
// (h*17) считается в 64 битах: произведение не должно переполняться до взятия остатка.
func OffsetFor(id string) Offset {
	h := int64(Hash(id))
	r1 := fraction(h % 1000)
	r2 := fraction((h * 17) % 1000)
	return Offset{
		DLat: r1 * JitterMagnitude,
		DLng: r2 * JitterMagnitude,
	}
}

// fraction отображает остаток из (-1000, 1000) в [-0.5, 0.5)
func fraction(rem int64) float64 {
	return math.Abs(float64(rem))/1000 - 0.5
}

// Jitterer кеширует смещения по идентификатору на всё время жизни экземпляра.
// Вытеснения нет: набор id ограничен тем, что сейчас на карте.
type Jitterer struct {
	mu    sync.Mutex
	cache map[string]Offset
}

func NewJitterer() *Jitterer {
	return &Jitterer{cache: make(map[string]Offset)}
}

// Offset возвращает смещение для id, вычисляя его не более одного раза
func (j *Jitterer) Offset(id string) Offset {
	j.mu.Lock()
	defer j.mu.Unlock()

	if off, ok := j.cache[id]; ok {
		return off
	}
	off := OffsetFor(id)
	j.cache[id] = off
	return off
}

// Apply возвращает смещённую точку в порядке (lng, lat)
func (j *Jitterer) Apply(id string, lat, lng float64) orb.Point {
	off := j.Offset(id)
	return orb.Point{lng + off.DLng, lat + off.DLat}
}

// Len - количество закешированных смещений
func (j *Jitterer) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.cache)
}

// Reset очищает кеш. Нужен в основном тестам.
func (j *Jitterer) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cache = make(map[string]Offset)
}
