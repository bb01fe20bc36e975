package web

import (
	"html/template"
	"net/http"

	"restaurant-intel/internal/common"
	"restaurant-intel/internal/features"
	"restaurant-intel/internal/predict"

	"github.com/rs/zerolog/log"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Restaurant Intelligence App</title>
</head>
<body>
    <h1>Restaurant Intelligence: Price &amp; Rating Predictor</h1>
    <p>Enter restaurant and item details below:</p>
    {{if .Error}}<p class="error">{{.Error}}</p>{{end}}
    <form method="POST" action="/">
        {{range .Selects}}
        <label>{{.Label}}
            <select name="{{.Name}}">
                {{$selected := .Selected}}{{range .Options}}<option value="{{.}}"{{if eq . $selected}} selected{{end}}>{{.}}</option>
                {{end}}
            </select>
        </label><br>
        {{end}}
        {{range .Numbers}}
        <label>{{.Label}}
            <input type="number" name="{{.Name}}" value="{{.Value}}" min="{{.Min}}"{{if .Max}} max="{{.Max}}"{{end}} step="{{.Step}}">
        </label><br>
        {{end}}
        <button type="submit">Predict</button>
    </form>
    {{if .Result}}
    <p class="success">Predicted Price: {{.PriceLabel}}</p>
    <p class="info">Highly Rated: {{.RatingLabel}}</p>
    {{if .Result.UnknownCategories}}<p class="warning">Not seen in training, encoded as 0: {{range $i, $c := .Result.UnknownCategories}}{{if $i}}, {{end}}{{$c}}{{end}}</p>{{end}}
    {{end}}
</body>
</html>
`))

type selectField struct {
	Name     string
	Label    string
	Options  []string
	Selected string
}

type numberField struct {
	Name  string
	Label string
	Value string
	Min   string
	Max   string
	Step  string
}

type pageData struct {
	Selects     []selectField
	Numbers     []numberField
	Error       string
	Result      *predict.Result
	PriceLabel  string
	RatingLabel string
}

// renderPage shows the form filled with in, plus the outcome of the last
// cycle when there is one.
func (s *Server) renderPage(w http.ResponseWriter, status int, in features.RawInput, result *predict.Result, err error) {
	data := pageData{
		Selects: s.selectFields(in),
		Numbers: numberFields(in),
	}

	if err != nil {
		data.Error = err.Error()
	}
	if result != nil {
		data.Result = result
		data.PriceLabel = result.PriceLabel(s.currency)
		data.RatingLabel = result.RatingLabel()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		log.Error().Err(err).Msg("Failed to render form page")
	}
}

func (s *Server) selectFields(in features.RawInput) []selectField {
	labels := []struct{ column, name, label, value string }{
		{common.ColRestaurantName, "restaurant_name", "Restaurant Name", in.RestaurantName},
		{common.ColCuisine, "cuisine", "Cuisine", in.Cuisine},
		{common.ColPlaceName, "place_name", "Place Name", in.PlaceName},
		{common.ColCity, "city", "City", in.City},
		{common.ColItemName, "item_name", "Item Name", in.ItemName},
		{common.ColBestSeller, "best_seller", "Is Best Seller?", in.BestSeller},
	}
	fields := make([]selectField, len(labels))
	for i, l := range labels {
		fields[i] = selectField{Name: l.name, Label: l.label, Options: s.options.Values(l.column), Selected: l.value}
	}
	return fields
}

func numberFields(in features.RawInput) []numberField {
	rating := func(name, label string, v float64) numberField {
		return numberField{Name: name, Label: label, Value: formatFloat(v), Min: "0", Max: "5", Step: "0.1"}
	}
	count := func(name, label string, v int) numberField {
		return numberField{Name: name, Label: label, Value: formatInt(v), Min: "0", Step: "1"}
	}
	return []numberField{
		rating("dining_rating", "Dining Rating", in.DiningRating),
		rating("delivery_rating", "Delivery Rating", in.DeliveryRating),
		count("dining_votes", "Dining Votes", in.DiningVotes),
		count("delivery_votes", "Delivery Votes", in.DeliveryVotes),
		count("total_votes", "Total Votes", in.TotalVotes),
		rating("average_rating", "Average Rating", in.AverageRating),
		count("restaurant_popularity", "Restaurant Popularity Score", in.RestaurantPopularity),
		rating("avg_rating_restaurant", "Avg Rating for Restaurant", in.AvgRatingRestaurant),
		{Name: "avg_price_restaurant", Label: "Avg Price for Restaurant", Value: formatFloat(in.AvgPriceRestaurant), Min: "0", Step: "0.01"},
	}
}
