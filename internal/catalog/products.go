package catalog

const placeholderImage = "/placeholder-product.png"

// DefaultProducts is the static storefront catalog.
var DefaultProducts = []Product{
	{ID: "iphone-15-pro", Title: "iPhone 15 Pro", Description: "The most advanced iPhone yet with titanium design and A17 Pro chip", Price: 99999, Images: []string{placeholderImage}, Category: "smartphones", Brand: "Apple"},
	{ID: "samsung-galaxy-s24", Title: "Samsung Galaxy S24 Ultra", Description: "The ultimate Galaxy experience with S Pen and AI-powered features", Price: 119999, Images: []string{placeholderImage}, Category: "smartphones", Brand: "Samsung"},
	{ID: "google-pixel-8", Title: "Google Pixel 8 Pro", Description: "AI-powered photography and pure Android experience", Price: 84999, Images: []string{placeholderImage}, Category: "smartphones", Brand: "Google"},
	{ID: "oneplus-12", Title: "OnePlus 12", Description: "Flagship performance with OxygenOS and fast charging", Price: 64999, Images: []string{placeholderImage}, Category: "smartphones", Brand: "OnePlus"},
	{ID: "xiaomi-14-ultra", Title: "Xiaomi 14 Ultra", Description: "Professional photography with Leica cameras", Price: 79999, Images: []string{placeholderImage}, Category: "smartphones", Brand: "Xiaomi"},
	{ID: "macbook-pro-16", Title: "MacBook Pro 16-inch", Description: "Supercharged by M3 Pro and M3 Max chips for demanding workflows", Price: 249999, Images: []string{placeholderImage}, Category: "laptops", Brand: "Apple"},
	{ID: "dell-xps-13", Title: "Dell XPS 13", Description: "Premium ultrabook with InfinityEdge display and 12th Gen Intel processors", Price: 99999, Images: []string{placeholderImage}, Category: "laptops", Brand: "Dell"},
	{ID: "surface-laptop-5", Title: "Microsoft Surface Laptop 5", Description: "Sleek, ultra-thin laptop with premium materials", Price: 129999, Images: []string{placeholderImage}, Category: "laptops", Brand: "Microsoft"},
	{ID: "lenovo-thinkpad-x1", Title: "Lenovo ThinkPad X1 Carbon", Description: "Business laptop with legendary ThinkPad reliability", Price: 149999, Images: []string{placeholderImage}, Category: "laptops", Brand: "Lenovo"},
	{ID: "hp-spectre-x360", Title: "HP Spectre x360", Description: "Premium 2-in-1 laptop with stunning design", Price: 119999, Images: []string{placeholderImage}, Category: "laptops", Brand: "HP"},
	{ID: "air-jordan-1", Title: "Air Jordan 1 Retro High OG", Description: "The original that started it all. Classic basketball style meets street culture", Price: 17000, Images: []string{placeholderImage}, Category: "shoes", Brand: "Nike"},
	{ID: "adidas-ultraboost-22", Title: "Adidas Ultraboost 22", Description: "Made with Primeblue, a high-performance recycled material", Price: 18000, Images: []string{placeholderImage}, Category: "shoes", Brand: "Adidas"},
	{ID: "converse-chuck-taylor", Title: "Converse Chuck Taylor All Star", Description: "The original basketball shoe, an American icon", Price: 5500, Images: []string{placeholderImage}, Category: "shoes", Brand: "Converse"},
	{ID: "vans-old-skool", Title: "Vans Old Skool", Description: "The classic skate shoe with the iconic side stripe", Price: 6500, Images: []string{placeholderImage}, Category: "shoes", Brand: "Vans"},
	{ID: "puma-suede-classic", Title: "Puma Suede Classic", Description: "Iconic basketball shoe turned street style staple", Price: 7000, Images: []string{placeholderImage}, Category: "shoes", Brand: "Puma"},
	{ID: "airpods-pro-2", Title: "AirPods Pro (2nd generation)", Description: "Up to 2x more Active Noise Cancellation", Price: 24999, Images: []string{placeholderImage}, Category: "audio", Brand: "Apple"},
	{ID: "sony-wh1000xm5", Title: "Sony WH-1000XM5", Description: "Industry-leading noise canceling headphones with crystal clear hands-free calling", Price: 39999, Images: []string{placeholderImage}, Category: "audio", Brand: "Sony"},
	{ID: "bose-quietcomfort-45", Title: "Bose QuietComfort 45", Description: "World-class noise cancellation in a comfortable design", Price: 32999, Images: []string{placeholderImage}, Category: "audio", Brand: "Bose"},
	{ID: "sennheiser-momentum-4", Title: "Sennheiser Momentum 4", Description: "Audiophile sound with adaptive noise cancellation", Price: 34999, Images: []string{placeholderImage}, Category: "audio", Brand: "Sennheiser"},
	{ID: "beats-studio-3", Title: "Beats Studio3 Wireless", Description: "Premium sound with Pure Adaptive Noise Canceling", Price: 34999, Images: []string{placeholderImage}, Category: "audio", Brand: "Beats"},
}
