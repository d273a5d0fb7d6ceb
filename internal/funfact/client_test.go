package funfact

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/NoahCxrest/ERMSupport/internal/config"
)

func TestDog_FirstImageWins(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		w.Write([]byte(`[{"url":"https://img/1.png"},{"url":"https://img/2.png"}]`))
	}))
	defer srv.Close()

	c := New(config.FunConfig{DogURL: srv.URL, DogAPIKey: "k9"})
	url, err := c.Dog(context.Background())
	if err != nil {
		t.Fatalf("Dog: %v", err)
	}
	if url != "https://img/1.png" {
		t.Errorf("url = %q", url)
	}
	if gotKey != "k9" {
		t.Errorf("api key header = %q", gotKey)
	}
}

func TestCat_EmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(config.FunConfig{CatURL: srv.URL})
	if _, err := c.Cat(context.Background()); err == nil {
		t.Error("Cat: want error for empty list")
	}
}

func TestMeme(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"title":"nice","url":"https://img/m.png"}`))
	}))
	defer srv.Close()

	c := New(config.FunConfig{MemeURL: srv.URL})
	m, err := c.Meme(context.Background())
	if err != nil {
		t.Fatalf("Meme: %v", err)
	}
	if m.Title != "nice" || m.URL != "https://img/m.png" {
		t.Errorf("meme = %+v", m)
	}
}

func TestInsult_PlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("you absolute teapot\n"))
	}))
	defer srv.Close()

	c := New(config.FunConfig{InsultURL: srv.URL})
	got, err := c.Insult(context.Background())
	if err != nil {
		t.Fatalf("Insult: %v", err)
	}
	if got != "you absolute teapot" {
		t.Errorf("insult = %q", got)
	}
}

func TestAge_NullPrediction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("name"); got != "Zyx" {
			t.Errorf("name param = %q", got)
		}
		w.Write([]byte(`{"name":"Zyx","age":null,"count":0}`))
	}))
	defer srv.Close()

	c := New(config.FunConfig{AgeifyURL: srv.URL})
	got, err := c.Age(context.Background(), "Zyx")
	if err != nil {
		t.Fatalf("Age: %v", err)
	}
	if got != "Age not available" {
		t.Errorf("age = %q", got)
	}
}

func TestAge_Predicted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"Noah","age":42,"count":1000}`))
	}))
	defer srv.Close()

	c := New(config.FunConfig{AgeifyURL: srv.URL})
	got, err := c.Age(context.Background(), "Noah")
	if err != nil {
		t.Fatalf("Age: %v", err)
	}
	if got != "42" {
		t.Errorf("age = %q", got)
	}
}

func TestCountry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":{"common":"France"},"capital":["Paris"],"region":"Europe","population":67000000}]`))
	}))
	defer srv.Close()

	c := New(config.FunConfig{CountriesURL: srv.URL + "/"})
	got, err := c.Country(context.Background(), "france")
	if err != nil {
		t.Fatalf("Country: %v", err)
	}
	if got.Name != "France" || got.Capital != "Paris" || got.Region != "Europe" || got.Population != 67000000 {
		t.Errorf("country = %+v", got)
	}
}

func TestCountry_MissingCapital(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":{"common":"Antarctica"},"region":"Polar","population":1000}]`))
	}))
	defer srv.Close()

	c := New(config.FunConfig{CountriesURL: srv.URL + "/"})
	got, err := c.Country(context.Background(), "antarctica")
	if err != nil {
		t.Fatalf("Country: %v", err)
	}
	if got.Capital != "Not available" {
		t.Errorf("capital = %q", got.Capital)
	}
}

func TestBadStatusSurfacesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(config.FunConfig{TrumpURL: srv.URL})
	if _, err := c.Trump(context.Background()); err == nil {
		t.Error("Trump: want error on 503")
	}
}
