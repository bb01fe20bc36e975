package common

// Categorical column names, as used by the trained encoders and models
const (
	ColRestaurantName = "Restaurant_Name"
	ColCuisine        = "Cuisine"
	ColPlaceName      = "Place_Name"
	ColCity           = "City"
	ColItemName       = "Item_Name"
	ColBestSeller     = "Best_Seller"
)

// CategoricalColumns lists the encoded columns in the order the form shows them
var CategoricalColumns = []string{
	ColRestaurantName,
	ColCuisine,
	ColPlaceName,
	ColCity,
	ColItemName,
	ColBestSeller,
}

// BestsellerLabel is the exact Best_Seller value that marks an item as a bestseller
const BestsellerLabel = "BESTSELLER"

// Environment variable keys
const (
	EnvConfigFile       = "CONFIG_FILE"
	EnvAppEnv           = "APP_ENV"
	EnvPriceModelPath   = "PRICE_MODEL_PATH"
	EnvRatingModelPath  = "RATING_MODEL_PATH"
	EnvEncodersPath     = "ENCODERS_PATH"
	EnvDatasetPath      = "DATASET_PATH"
	EnvPythonPath       = "PYTHON_PATH"
	EnvInferenceBackend = "INFERENCE_BACKEND"
	EnvInferenceURL     = "INFERENCE_URL"
	EnvInferenceTimeout = "INFERENCE_TIMEOUT"
	EnvInferenceRate    = "INFERENCE_RATE_LIMIT"
	EnvHTTPPort         = "HTTP_PORT"
	EnvDataPath         = "DATA_PATH"
	EnvCurrency         = "CURRENCY"
	EnvAllowedOrigins   = "ALLOWED_ORIGINS"
	EnvLogLevel         = "LOG_LEVEL"
)

// Inference backends
const (
	BackendSubprocess = "subprocess"
	BackendHTTP       = "http"
)

// Configuration defaults
const (
	DefaultPriceModelPath   = "price_predictor.pkl"
	DefaultRatingModelPath  = "rating_classifier.pkl"
	DefaultEncodersPath     = "label_encoders.pkl"
	DefaultDatasetPath      = "enhanced_zomato_dataset_clean.csv"
	DefaultInferenceBackend = BackendSubprocess
	DefaultHTTPPort         = 8501
	DefaultCurrency         = "₹"
	DefaultLogLevel         = "info"
)

// Form defaults, matching the initial widget values
const (
	DefaultDiningRating         = 4.0
	DefaultDeliveryRating       = 4.0
	DefaultDiningVotes          = 30
	DefaultDeliveryVotes        = 10
	DefaultTotalVotes           = 40
	DefaultAverageRating        = 4.2
	DefaultRestaurantPopularity = 50
	DefaultAvgRatingRestaurant  = 4.0
	DefaultAvgPriceRestaurant   = 250.0
)

// Validation constants
const (
	MinRating   = 0.0
	MaxRating   = 5.0
	MaxCount    = 1<<53 - 1 // largest integer a browser number input holds exactly
	MinHTTPPort = 1024
	MaxHTTPPort = 65535
)
