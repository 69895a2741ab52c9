package asset

// DefaultNavcoreConfig returns the default navcore TOML configuration
// Three bots cross a maze-free 12x8 grid while a crate drops on the middle lane and is removed later
const DefaultNavcoreConfig = `

# === Path finder modifier selection ===
[pathfinder]
goto = "straight"
can_go = "navmesh_lpf"
goal_reached = "distance"
node_reached = "passed"
goal_changed = "distance"
accident = "stuck"
refine_goal = "lpf"
direct_way = "can_go"
edge_awareness = "distance_time"
find_nodes = "nearest"
steering = "avoidance"
async = true
taboo_duration = "5s"
retry_interval = "1s"

[pathfinder.thresholds]
goal_reached_min = 0.3
goal_reached_max = 0.6
node_reached_min = 0.25
node_reached_max = 0.5
goal_changed_distance = 0.5
queue_spacing = 1.0
stuck_window = "2s"
stuck_min_progress = 0.2
off_path_distance = 2.0
awareness_distance = 5.0
forget_delay = "2s"
refine_radius = 5.0
direct_way_distance = 4.0
avoidance_radius = 3.0
avoidance_horizon = "1.5s"


# === Obstacle aggregation ===
[lpf]
enabled = true


# === Async lookups ===
[async]
enabled = true
capacity = 64

[async.modules]
nearest_vertex = 32
direct_way = 32


# === Frame loop and aperiodic budgets ===
[engine]
frame_interval = "50ms"
mode = "estimated"
parallelism = 4

[engine.tasks.astar]
allowance = "2ms"
estimate = "2us"

[engine.tasks.lpf]
allowance = "1ms"
estimate = "100us"

[engine.tasks.async]
allowance = "1ms"
estimate = "20us"


# === Scenario ===
[scenario]
name = "crossing"
seed = 7
navmesh = true
max_frames = 2000
walls = [[5, 0], [5, 1], [5, 2], [6, 5], [6, 6], [6, 7]]

[scenario.grid]
width = 12
height = 8
spacing = 1.0
cell_size = 4

[[scenario.obstacles]]
id = 1
rect = [7.6, 3.4, 8.4, 4.6]
appear = "1s"
vanish = "8s"

[[scenario.obstacles]]
id = 2
outline = [[2.6, 5.4], [3.4, 5.4], [3.0, 6.4]]

[[scenario.bots]]
id = "alpha"
start = [0.0, 0.0, 0.0]
destination = [11.0, 7.0, 0.0]
max_speed = 2.0

[[scenario.bots]]
id = "bravo"
start = [11.0, 0.0, 0.0]
destination = [0.0, 7.0, 0.0]
max_speed = 1.5

[[scenario.bots]]
id = "charlie"
start = [0.0, 4.0, 0.0]
destination = [11.0, 4.0, 0.0]
max_speed = 2.5
`
